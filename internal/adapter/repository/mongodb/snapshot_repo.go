package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/simaogato/herdledger-backend/internal/domain"
)

const snapshotCollection = "ledger_snapshots"

// SnapshotRepository archives ledger snapshots in MongoDB.
// It implements domain.SnapshotRepository.
type SnapshotRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewSnapshotRepository connects to MongoDB and verifies the connection
func NewSnapshotRepository(ctx context.Context, uri string, dbName string) (*SnapshotRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if derr := client.Disconnect(disconnectCtx); derr != nil {
			return nil, fmt.Errorf("failed to ping mongodb: %w (disconnect: %v)", err, derr)
		}
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &SnapshotRepository{
		client:   client,
		dbName:   dbName,
		collName: snapshotCollection,
	}, nil
}

// Save inserts the snapshot as one document
func (r *SnapshotRepository) Save(ctx context.Context, snapshot *domain.LedgerSnapshot) error {
	doc, err := toSnapshotDocument(snapshot)
	if err != nil {
		return err
	}

	collection := r.client.Database(r.dbName).Collection(r.collName)
	if _, err := collection.InsertOne(ctx, doc); err != nil {
		return &domain.StorageError{Op: "insert snapshot", Err: err}
	}
	return nil
}

// Close closes the MongoDB connection
func (r *SnapshotRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

type snapshotDocument struct {
	ID           string               `bson:"_id"`
	TakenAt      time.Time            `bson:"taken_at"`
	TotalValue   primitive.Decimal128 `bson:"total_value"`
	TotalSplit60 primitive.Decimal128 `bson:"total_split_60"`
	TotalSplit40 primitive.Decimal128 `bson:"total_split_40"`
	WarningCount int                  `bson:"warning_count"`
	Rows         []rowDocument        `bson:"rows"`
}

type rowDocument struct {
	PartnerID      string               `bson:"partner_id"`
	Date           string               `bson:"date"`
	SaleID         string               `bson:"sale_id,omitempty"`
	TotalInflow    int                  `bson:"total_inflow"`
	ExitsByCause   map[string]int       `bson:"exits_by_cause"`
	CurrentBalance int                  `bson:"current_balance"`
	SaleUnitPrice  primitive.Decimal128 `bson:"sale_unit_price"`
	SaleWeight     primitive.Decimal128 `bson:"sale_weight"`
	SaleValue      primitive.Decimal128 `bson:"sale_value"`
	Split60        primitive.Decimal128 `bson:"split_60"`
	Split40        primitive.Decimal128 `bson:"split_40"`
	Warnings       []warningDocument    `bson:"warnings,omitempty"`
}

type warningDocument struct {
	Code    string `bson:"code"`
	Message string `bson:"message"`
}

func toSnapshotDocument(s *domain.LedgerSnapshot) (*snapshotDocument, error) {
	doc := &snapshotDocument{
		ID:           s.ID.String(),
		TakenAt:      s.TakenAt.UTC(),
		WarningCount: s.WarningCount,
		Rows:         make([]rowDocument, 0, len(s.Rows)),
	}

	var err error
	if doc.TotalValue, err = toDecimal128(s.TotalValue); err != nil {
		return nil, err
	}
	if doc.TotalSplit60, err = toDecimal128(s.TotalSplit60); err != nil {
		return nil, err
	}
	if doc.TotalSplit40, err = toDecimal128(s.TotalSplit40); err != nil {
		return nil, err
	}

	for _, row := range s.Rows {
		rd := rowDocument{
			PartnerID:      row.PartnerID,
			Date:           row.Date.Format(domain.DateLayout),
			TotalInflow:    row.TotalInflow,
			ExitsByCause:   make(map[string]int, len(row.ExitsByCause)),
			CurrentBalance: row.CurrentBalance,
		}
		if row.SaleID != nil {
			rd.SaleID = row.SaleID.String()
		}
		for cause, qty := range row.ExitsByCause {
			rd.ExitsByCause[string(cause)] = qty
		}

		for _, pair := range []struct {
			dst *primitive.Decimal128
			src decimal.Decimal
		}{
			{&rd.SaleUnitPrice, row.SaleUnitPrice},
			{&rd.SaleWeight, row.SaleWeight},
			{&rd.SaleValue, row.SaleValue},
			{&rd.Split60, row.Split60},
			{&rd.Split40, row.Split40},
		} {
			if *pair.dst, err = toDecimal128(pair.src); err != nil {
				return nil, err
			}
		}

		for _, w := range row.Warnings {
			rd.Warnings = append(rd.Warnings, warningDocument{Code: string(w.Code()), Message: w.Message()})
		}

		doc.Rows = append(doc.Rows, rd)
	}

	return doc, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to encode decimal %s: %w", d.String(), err)
	}
	return v, nil
}
