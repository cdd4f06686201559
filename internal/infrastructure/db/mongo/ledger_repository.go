package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/earnings-tracker/ledger-api/internal/core/domain"
	"github.com/earnings-tracker/ledger-api/internal/core/ports"
)

// applicationDoc carries a revision that every child write bumps. Two
// transactions touching the same application therefore always conflict.
type applicationDoc struct {
	ID           int64                `bson:"_id"`
	OwnerUserID  int64                `bson:"owner_user_id"`
	Name         string               `bson:"name"`
	StartDate    string               `bson:"start_date"`
	InitialValue primitive.Decimal128 `bson:"initial_value"`
	DueDate      string               `bson:"due_date"`
	Revision     int64                `bson:"revision"`
	CreatedAt    time.Time            `bson:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at"`
}

func (d applicationDoc) toDomain() (*domain.Application, error) {
	initial, err := fromDecimal128(d.InitialValue)
	if err != nil {
		return nil, fmt.Errorf("decode initial_value of application %d: %w", d.ID, err)
	}
	return &domain.Application{
		ID:           d.ID,
		OwnerUserID:  d.OwnerUserID,
		Name:         d.Name,
		StartDate:    domain.Date(d.StartDate),
		InitialValue: initial,
		DueDate:      domain.Date(d.DueDate),
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}, nil
}

type earningDoc struct {
	ID            int64                `bson:"_id"`
	ApplicationID int64                `bson:"application_id"`
	Date          string               `bson:"date"`
	Gross         primitive.Decimal128 `bson:"gross"`
	Net           primitive.Decimal128 `bson:"net"`
}

func (d earningDoc) toDomain() (*domain.Earning, error) {
	gross, err := fromDecimal128(d.Gross)
	if err != nil {
		return nil, fmt.Errorf("decode gross of earning %d: %w", d.ID, err)
	}
	net, err := fromDecimal128(d.Net)
	if err != nil {
		return nil, fmt.Errorf("decode net of earning %d: %w", d.ID, err)
	}
	return &domain.Earning{
		ID:            d.ID,
		ApplicationID: d.ApplicationID,
		Date:          domain.Date(d.Date),
		Gross:         gross,
		Net:           net,
	}, nil
}

func newEarningDoc(e *domain.Earning) (earningDoc, error) {
	gross, err := toDecimal128(e.Gross)
	if err != nil {
		return earningDoc{}, fmt.Errorf("encode gross: %w", err)
	}
	net, err := toDecimal128(e.Net)
	if err != nil {
		return earningDoc{}, fmt.Errorf("encode net: %w", err)
	}
	return earningDoc{
		ID:            e.ID,
		ApplicationID: e.ApplicationID,
		Date:          e.Date.String(),
		Gross:         gross,
		Net:           net,
	}, nil
}

// --- Applications ---

func (s *Store) CreateApplication(ctx context.Context, app *domain.Application) (*domain.Application, error) {
	if _, err := s.FindByID(ctx, app.OwnerUserID); err != nil {
		return nil, err
	}
	initial, err := toDecimal128(app.InitialValue)
	if err != nil {
		return nil, fmt.Errorf("encode initial_value: %w", err)
	}
	id, err := s.nextID(ctx, collectionApplications)
	if err != nil {
		return nil, err
	}

	doc := applicationDoc{
		ID:           id,
		OwnerUserID:  app.OwnerUserID,
		Name:         app.Name,
		StartDate:    app.StartDate.String(),
		InitialValue: initial,
		DueDate:      app.DueDate.String(),
		CreatedAt:    app.CreatedAt.UTC().Truncate(time.Millisecond),
		UpdatedAt:    app.UpdatedAt.UTC().Truncate(time.Millisecond),
	}
	if _, err := s.applications.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert application: %w", err)
	}
	return doc.toDomain()
}

func (s *Store) GetApplication(ctx context.Context, id int64) (*domain.Application, error) {
	var doc applicationDoc
	if err := s.applications.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("get application: %w", err)
	}
	return doc.toDomain()
}

// UpdateApplication never changes the owner.
func (s *Store) UpdateApplication(ctx context.Context, app *domain.Application) (*domain.Application, error) {
	initial, err := toDecimal128(app.InitialValue)
	if err != nil {
		return nil, fmt.Errorf("encode initial_value: %w", err)
	}

	var doc applicationDoc
	err = s.applications.FindOneAndUpdate(ctx,
		bson.M{"_id": app.ID},
		bson.M{
			"$set": bson.M{
				"name":          app.Name,
				"start_date":    app.StartDate.String(),
				"initial_value": initial,
				"due_date":      app.DueDate.String(),
				"updated_at":    app.UpdatedAt.UTC(),
			},
			"$inc": bson.M{"revision": int64(1)},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update application: %w", err)
	}
	return doc.toDomain()
}

// DeleteApplication removes the application and all of its earnings in one
// transaction.
func (s *Store) DeleteApplication(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(sc mongo.SessionContext) error {
		res, err := s.applications.DeleteOne(sc, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("delete application: %w", err)
		}
		if res.DeletedCount == 0 {
			return domain.ErrApplicationNotFound
		}
		if _, err := s.earnings.DeleteMany(sc, bson.M{"application_id": id}); err != nil {
			return fmt.Errorf("delete earnings: %w", err)
		}
		return nil
	})
}

func (s *Store) ListApplications(ctx context.Context, f ports.ApplicationFilter) ([]*domain.Application, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	return s.findApplications(ctx, scopeFilter(f.Scope, 0), opts)
}

func (s *Store) findApplications(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Application, error) {
	cur, err := s.applications.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find applications: %w", err)
	}
	var docs []applicationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode applications: %w", err)
	}

	out := make([]*domain.Application, 0, len(docs))
	for _, d := range docs {
		app, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, nil
}

// scopeFilter builds the owner filter on applications. onlyID > 0 narrows to
// a single application.
func scopeFilter(scope domain.Scope, onlyID int64) bson.M {
	filter := bson.M{}
	if !scope.All {
		filter["owner_user_id"] = scope.OwnerID
	}
	if onlyID > 0 {
		filter["_id"] = onlyID
	}
	return filter
}

func rangeFilter(r domain.DateRange) bson.M {
	return bson.M{"$gte": r.From.String(), "$lte": r.To.String()}
}

// --- Earnings ---

// CreateEarning bumps the parent revision inside the same transaction as the
// insert, so it conflicts with a concurrent DeleteApplication.
func (s *Store) CreateEarning(ctx context.Context, e *domain.Earning) (*domain.Earning, error) {
	doc, err := newEarningDoc(e)
	if err != nil {
		return nil, err
	}
	if doc.ID, err = s.nextID(ctx, collectionEarnings); err != nil {
		return nil, err
	}

	err = s.inTx(ctx, func(sc mongo.SessionContext) error {
		if err := s.touchApplication(sc, e.ApplicationID); err != nil {
			return err
		}
		if _, err := s.earnings.InsertOne(sc, doc); err != nil {
			return fmt.Errorf("insert earning: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc.toDomain()
}

func (s *Store) touchApplication(ctx context.Context, id int64) error {
	res, err := s.applications.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"revision": int64(1)}})
	if err != nil {
		return fmt.Errorf("touch application: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrApplicationNotFound
	}
	return nil
}

func (s *Store) GetEarning(ctx context.Context, id int64) (*domain.Earning, error) {
	var doc earningDoc
	if err := s.earnings.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrEarningNotFound
		}
		return nil, fmt.Errorf("get earning: %w", err)
	}
	return doc.toDomain()
}

// UpdateEarning never moves an earning to another application.
func (s *Store) UpdateEarning(ctx context.Context, e *domain.Earning) (*domain.Earning, error) {
	doc, err := newEarningDoc(e)
	if err != nil {
		return nil, err
	}

	var updated earningDoc
	err = s.earnings.FindOneAndUpdate(ctx,
		bson.M{"_id": e.ID},
		bson.M{"$set": bson.M{"date": doc.Date, "gross": doc.Gross, "net": doc.Net}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrEarningNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update earning: %w", err)
	}
	return updated.toDomain()
}

func (s *Store) DeleteEarning(ctx context.Context, id int64) error {
	res, err := s.earnings.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete earning: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrEarningNotFound
	}
	return nil
}

func (s *Store) ListEarnings(ctx context.Context, f ports.EarningFilter) ([]*domain.Earning, error) {
	filter := bson.M{"application_id": f.ApplicationID, "date": rangeFilter(f.Range)}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	return s.findEarnings(ctx, filter, opts)
}

func (s *Store) findEarnings(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Earning, error) {
	cur, err := s.earnings.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find earnings: %w", err)
	}
	var docs []earningDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode earnings: %w", err)
	}

	out := make([]*domain.Earning, 0, len(docs))
	for _, d := range docs {
		e, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// ScopedLedger reads applications and earnings inside one transaction so both
// come from the same snapshot.
func (s *Store) ScopedLedger(ctx context.Context, f ports.LedgerFilter) ([]*domain.Application, []*domain.Earning, error) {
	var (
		apps     []*domain.Application
		earnings []*domain.Earning
	)
	err := s.inTx(ctx, func(sc mongo.SessionContext) error {
		var err error
		apps, err = s.findApplications(sc, scopeFilter(f.Scope, f.ApplicationID), options.Find())
		if err != nil {
			return err
		}
		ids := make([]int64, 0, len(apps))
		for _, a := range apps {
			ids = append(ids, a.ID)
		}
		if len(ids) == 0 {
			return nil
		}
		earnings, err = s.findEarnings(sc, bson.M{
			"application_id": bson.M{"$in": ids},
			"date":           rangeFilter(f.Range),
		}, options.Find())
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return apps, earnings, nil
}

var _ ports.LedgerRepository = (*Store)(nil)
