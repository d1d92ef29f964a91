package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"go.uber.org/zap"

	"rfq-match/logic/recall"
	"rfq-match/types"
)

// SupplierIndex 供应商目录的关键词索引
type SupplierIndex struct {
	client *elasticsearch.Client
	index  string
	log    *zap.Logger
}

// NewSupplierIndex 初始化 ES 客户端并确保索引存在
func NewSupplierIndex(ctx context.Context, addresses []string, index string, log *zap.Logger) (*SupplierIndex, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("create es client: %w", err)
	}
	return NewSupplierIndexWithClient(ctx, client, index, log)
}

func NewSupplierIndexWithClient(ctx context.Context, client *elasticsearch.Client, index string, log *zap.Logger) (*SupplierIndex, error) {
	if log == nil {
		log = zap.NewNop()
	}
	idx := &SupplierIndex{client: client, index: index, log: log}
	if err := idx.initMapping(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

// supplierMapping 名称/能力/品牌走 english 分词，州代码和认证走 keyword
const supplierMapping = `
{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0
  },
  "mappings": {
    "properties": {
      "supplier_id":    { "type": "keyword" },
      "name": {
        "type": "text",
        "analyzer": "english",
        "fields": { "keyword": { "type": "keyword" } }
      },
      "profile":        { "type": "text", "analyzer": "english" },
      "capabilities":   { "type": "text", "analyzer": "english" },
      "brands":         { "type": "text", "analyzer": "standard" },
      "certifications": { "type": "keyword" },
      "home_state":     { "type": "keyword" },
      "delivery_regions": { "type": "keyword" },
      "taa_compliant":  { "type": "boolean" },
      "status":         { "type": "keyword" }
    }
  }
}`

func (s *SupplierIndex) initMapping(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", s.index, err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	s.log.Info("creating supplier index", zap.String("index", s.index))
	res, err = s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithBody(strings.NewReader(supplierMapping)),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", s.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", s.index, res.String())
	}
	return nil
}

// supplierDoc 索引里的文档结构
func supplierDoc(sup *types.Supplier) map[string]any {
	brands := make([]string, 0, len(sup.AuthorizedBrands))
	for b := range sup.AuthorizedBrands {
		brands = append(brands, b)
	}
	return map[string]any{
		"supplier_id":      sup.ID,
		"name":             sup.Name,
		"profile":          recall.SupplierProfile(sup),
		"capabilities":     strings.ReplaceAll(strings.Join(sup.Capabilities, " "), "_", " "),
		"brands":           brands,
		"certifications":   sup.Certifications,
		"home_state":       sup.Geography.HomeState,
		"delivery_regions": sup.Geography.DeliveryRegions,
		"taa_compliant":    sup.Compliance.TAACompliant,
		"status":           types.SupplierActive,
	}
}

// IndexSuppliers 批量写入，供应商 ID 作为 _id，重复写入是覆盖；不在用的供应商会被删除
func (s *SupplierIndex) IndexSuppliers(ctx context.Context, suppliers []types.Supplier) (int, error) {
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Index:  s.index,
		Client: s.client,
	})
	if err != nil {
		return 0, err
	}

	var failed atomic.Int64
	onFailure := func(_ context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
		failed.Add(1)
		if err == nil {
			err = fmt.Errorf("%s: %s", res.Error.Type, res.Error.Reason)
		}
		s.log.Warn("supplier index item failed", zap.String("supplier_id", item.DocumentID), zap.Error(err))
	}

	indexed := 0
	for i := range suppliers {
		sup := &suppliers[i]
		item := esutil.BulkIndexerItem{
			DocumentID: sup.ID,
			OnFailure:  onFailure,
		}
		if sup.IsActive() {
			data, err := json.Marshal(supplierDoc(sup))
			if err != nil {
				return indexed, err
			}
			item.Action = "index"
			item.Body = bytes.NewReader(data)
			indexed++
		} else {
			item.Action = "delete"
		}
		if err := bi.Add(ctx, item); err != nil {
			return indexed, err
		}
	}

	if err := bi.Close(ctx); err != nil {
		return indexed, err
	}
	if n := failed.Load(); n > 0 {
		return indexed, fmt.Errorf("es bulk index: %d of %d items failed", n, len(suppliers))
	}
	return indexed, nil
}
