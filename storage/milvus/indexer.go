package milvus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/indexer/milvus"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/schema"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"rfq-match/logic/recall"
	"rfq-match/types"
)

// 集合字段名
const (
	fieldID        = "id"
	fieldVector    = "vector"
	fieldContent   = "content"
	fieldHomeState = "home_state"
	fieldMetadata  = "metadata"
)

// Connect 连接 Milvus，10 秒超时
func Connect(ctx context.Context, addr string) (client.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	cli, err := client.NewClient(connectCtx, client.Config{Address: addr})
	if err != nil {
		return nil, fmt.Errorf("connect milvus %s: %w", addr, err)
	}
	return cli, nil
}

// supplierFields 维度由 embedder 实际输出决定
func supplierFields(dim int) []*entity.Field {
	return []*entity.Field{
		{
			Name:       fieldID,
			DataType:   entity.FieldTypeVarChar,
			PrimaryKey: true,
			AutoID:     false,
			TypeParams: map[string]string{"max_length": "64"},
		},
		{
			Name:       fieldVector,
			DataType:   entity.FieldTypeFloatVector,
			TypeParams: map[string]string{"dim": fmt.Sprintf("%d", dim)},
		},
		{
			Name:       fieldContent,
			DataType:   entity.FieldTypeVarChar,
			TypeParams: map[string]string{"max_length": "65535"},
		},
		{
			Name:       fieldHomeState,
			DataType:   entity.FieldTypeVarChar,
			TypeParams: map[string]string{"max_length": "8"},
		},
		{
			Name:     fieldMetadata,
			DataType: entity.FieldTypeJSON,
		},
	}
}

// supplierRows Document -> Milvus 行，向量转 float32
func supplierRows(_ context.Context, docs []*schema.Document, vectors [][]float64) ([]interface{}, error) {
	if len(docs) != len(vectors) {
		return nil, fmt.Errorf("milvus rows: %d documents but %d vectors", len(docs), len(vectors))
	}
	rows := make([]interface{}, len(docs))
	for i, doc := range docs {
		vec32 := make([]float32, len(vectors[i]))
		for j, v := range vectors[i] {
			vec32[j] = float32(v)
		}
		meta := doc.MetaData
		if meta == nil {
			meta = map[string]any{}
		}
		metaBytes, err := json.Marshal(meta)
		if err != nil {
			metaBytes = []byte("{}")
		}
		rows[i] = map[string]interface{}{
			fieldID:        doc.ID,
			fieldVector:    vec32,
			fieldContent:   doc.Content,
			fieldHomeState: cast.ToString(meta[recall.MetaHomeState]),
			fieldMetadata:  metaBytes,
		}
	}
	return rows, nil
}

// NewSupplierIndexer 建集合 (已存在则复用) 并建 HNSW 索引
func NewSupplierIndexer(ctx context.Context, cli client.Client, embedder embedding.Embedder, collection string, log *zap.Logger) (indexer.Indexer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vecs, err := embedder.EmbedStrings(ctx, []string{"supplier"})
	if err != nil {
		return nil, fmt.Errorf("probe embedder: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("probe embedder: empty vector")
	}
	dim := len(vecs[0])
	log.Info("milvus supplier collection", zap.String("collection", collection), zap.Int("dim", dim))

	idx, err := milvus.NewIndexer(ctx, &milvus.IndexerConfig{
		Client:            cli,
		Collection:        collection,
		Embedding:         embedder,
		Fields:            supplierFields(dim),
		DocumentConverter: supplierRows,
		MetricType:        milvus.L2,
	})
	if err != nil {
		return nil, fmt.Errorf("new milvus indexer: %w", err)
	}

	// 默认索引换成 HNSW
	_ = cli.ReleaseCollection(ctx, collection)
	if err := cli.DropIndex(ctx, collection, fieldVector); err != nil {
		log.Debug("drop default vector index", zap.Error(err))
	}
	hnsw, err := entity.NewIndexHNSW(entity.L2, 16, 200)
	if err != nil {
		return nil, err
	}
	if err := cli.CreateIndex(ctx, collection, fieldVector, hnsw, false); err != nil {
		return nil, fmt.Errorf("create hnsw index: %w", err)
	}
	if err := cli.CreateIndex(ctx, collection, fieldHomeState, entity.NewScalarIndex(), false); err != nil {
		return nil, fmt.Errorf("create home_state index: %w", err)
	}
	if err := cli.LoadCollection(ctx, collection, false); err != nil {
		return nil, fmt.Errorf("load collection: %w", err)
	}
	return idx, nil
}

// DeleteSuppliers 按主键删除 (供应商下线)
func DeleteSuppliers(ctx context.Context, cli client.Client, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return cli.DeleteByPks(ctx, collection, "", entity.NewColumnVarChar(fieldID, ids))
}

// SupplierStore 目录同步: 在用的写入，下线的删除
type SupplierStore struct {
	idx        indexer.Indexer
	cli        client.Client
	collection string
}

func NewSupplierStore(idx indexer.Indexer, cli client.Client, collection string) *SupplierStore {
	return &SupplierStore{idx: idx, cli: cli, collection: collection}
}

// IndexSuppliers 返回写入的在用供应商数
func (s *SupplierStore) IndexSuppliers(ctx context.Context, suppliers []types.Supplier) (int, error) {
	// Milvus insert 不去重，先按主键全部删掉 (包括下线的) 再写在用的
	ids := make([]string, 0, len(suppliers))
	for i := range suppliers {
		ids = append(ids, suppliers[i].ID)
	}
	if err := DeleteSuppliers(ctx, s.cli, s.collection, ids); err != nil {
		return 0, fmt.Errorf("delete stale suppliers: %w", err)
	}

	docs := recall.SupplierDocuments(suppliers)
	if len(docs) == 0 {
		return 0, nil
	}
	stored, err := s.idx.Store(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("store suppliers: %w", err)
	}
	return len(stored), nil
}
