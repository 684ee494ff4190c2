package mongo

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bmrengine/internal/app/dto"
	"bmrengine/internal/domain/bmr"
	"bmrengine/internal/domain/estimates"
)

const historyCollection = "bmr_estimates"

// HistoryRepository stores served estimates in the bmr_estimates collection.
type HistoryRepository struct {
	col *mongo.Collection
}

func NewHistoryRepository(db *mongo.Database) *HistoryRepository {
	col := db.Collection(historyCollection)
	idx := mongo.IndexModel{Keys: bson.D{{Key: "subject_id", Value: 1}, {Key: "created_at", Value: -1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &HistoryRepository{col: col}
}

func (r *HistoryRepository) Save(ctx context.Context, rec estimates.Record) error {
	if strings.TrimSpace(rec.SubjectID) == "" {
		return estimates.ErrSubjectRequired
	}
	_, err := r.col.InsertOne(ctx, toDocument(rec))
	return err
}

func (r *HistoryRepository) ListBySubject(ctx context.Context, subjectID string, limit int) ([]estimates.Record, error) {
	subject := strings.TrimSpace(subjectID)
	if subject == "" {
		return nil, estimates.ErrSubjectRequired
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(estimates.NormalizeLimit(limit)))
	cur, err := r.col.Find(ctx, bson.M{"subject_id": subject}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []estimateDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]estimates.Record, 0, len(docs))
	for _, doc := range docs {
		rec, err := doc.toRecord()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *HistoryRepository) Count(ctx context.Context) (int64, error) {
	return r.col.EstimatedDocumentCount(ctx)
}

type profileDocument struct {
	WeightKg          float64  `bson:"weight_kg"`
	HeightCm          float64  `bson:"height_cm"`
	Age               int      `bson:"age"`
	Gender            string   `bson:"gender"`
	BodyFatPercentage *float64 `bson:"body_fat_percentage,omitempty"`
}

type resultDocument struct {
	BMR              float64            `bson:"bmr"`
	Method           string             `bson:"method"`
	Confidence       float64            `bson:"confidence"`
	Components       map[string]float64 `bson:"components"`
	BodyFatEstimated bool               `bson:"body_fat_estimated"`
	Weights          map[string]float64 `bson:"weights,omitempty"`
	Constituents     []resultDocument   `bson:"constituents,omitempty"`
}

type estimateDocument struct {
	ID         string          `bson:"_id"`
	SubjectID  string          `bson:"subject_id"`
	Method     string          `bson:"method"`
	Profile    profileDocument `bson:"profile"`
	Result     resultDocument  `bson:"result"`
	Experiment string          `bson:"experiment,omitempty"`
	Cached     bool            `bson:"cached"`
	CreatedAt  time.Time       `bson:"created_at"`
}

func toDocument(rec estimates.Record) estimateDocument {
	p := dto.MapProfile(rec.Profile)
	return estimateDocument{
		ID:        string(rec.ID),
		SubjectID: rec.SubjectID,
		Method:    string(rec.Method),
		Profile: profileDocument{
			WeightKg:          p.WeightKg,
			HeightCm:          p.HeightCm,
			Age:               p.Age,
			Gender:            p.Gender,
			BodyFatPercentage: p.BodyFatPercentage,
		},
		Result:     toResultDocument(dto.MapEstimate(rec.Result)),
		Experiment: rec.Experiment,
		Cached:     rec.Cached,
		CreatedAt:  rec.CreatedAt.UTC(),
	}
}

func toResultDocument(est dto.Estimate) resultDocument {
	out := resultDocument{
		BMR:              est.BMR,
		Method:           est.Method,
		Confidence:       est.Confidence,
		Components:       est.Components,
		BodyFatEstimated: est.BodyFatEstimated,
		Weights:          est.Weights,
	}
	for _, c := range est.Constituents {
		out.Constituents = append(out.Constituents, toResultDocument(c))
	}
	return out
}

func (d resultDocument) toEstimate() dto.Estimate {
	out := dto.Estimate{
		BMR:              d.BMR,
		Method:           d.Method,
		Confidence:       d.Confidence,
		Components:       d.Components,
		BodyFatEstimated: d.BodyFatEstimated,
		Weights:          d.Weights,
	}
	for _, c := range d.Constituents {
		out.Constituents = append(out.Constituents, c.toEstimate())
	}
	return out
}

func (d estimateDocument) toRecord() (estimates.Record, error) {
	profile, err := dto.Profile{
		WeightKg:          d.Profile.WeightKg,
		HeightCm:          d.Profile.HeightCm,
		Age:               d.Profile.Age,
		Gender:            d.Profile.Gender,
		BodyFatPercentage: d.Profile.BodyFatPercentage,
	}.ToDomain()
	if err != nil {
		return estimates.Record{}, err
	}
	return estimates.Record{
		ID:         estimates.RecordID(d.ID),
		SubjectID:  d.SubjectID,
		Method:     bmr.Method(d.Method),
		Profile:    profile,
		Result:     d.Result.toEstimate().ToDomain(),
		Experiment: d.Experiment,
		Cached:     d.Cached,
		CreatedAt:  d.CreatedAt,
	}, nil
}

var _ estimates.Repository = (*HistoryRepository)(nil)
