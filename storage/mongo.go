package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"employee-manager/domain"
)

const (
	employeesCollection = "employees"
	mongoConnectTimeout = 3 * time.Second
)

// MongoStore keeps employees as documents in a MongoDB collection. Ids are
// ObjectIDs rendered as hex.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to uri and checks the connection before returning.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	// Connect does not wait for server discovery.
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &MongoStore{client: client, coll: client.Database(database).Collection(employeesCollection)}, nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type employeeDocument struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Name     string             `bson:"name,omitempty"`
	Email    string             `bson:"email,omitempty"`
	Position string             `bson:"position,omitempty"`
	Salary   *float64           `bson:"salary,omitempty"`
}

func (d employeeDocument) employee() domain.Employee {
	return domain.Employee{
		ID:       d.ID.Hex(),
		Name:     d.Name,
		Email:    d.Email,
		Position: d.Position,
		Salary:   d.Salary,
	}
}

// CreateEmployee inserts a new document and lets the driver assign its id.
func (s *MongoStore) CreateEmployee(ctx context.Context, p domain.Patch) (domain.Employee, error) {
	emp := domain.Employee{}.Apply(p)
	doc := employeeDocument{
		ID:       primitive.NewObjectID(),
		Name:     emp.Name,
		Email:    emp.Email,
		Position: emp.Position,
		Salary:   emp.Salary,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return domain.Employee{}, fmt.Errorf("insert employee: %w", err)
	}
	return doc.employee(), nil
}

// ListEmployees returns all documents in natural order.
func (s *MongoStore) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	cur, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find employees: %w", err)
	}
	defer cur.Close(ctx)

	employees := []domain.Employee{}
	for cur.Next(ctx) {
		var doc employeeDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode employee: %w", err)
		}
		employees = append(employees, doc.employee())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}
	return employees, nil
}

// UpdateEmployee applies the patch with $set/$unset and returns the
// document as it is after the update.
func (s *MongoStore) UpdateEmployee(ctx context.Context, id string, p domain.Patch) (domain.Employee, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Employee{}, domain.ErrNotFound
	}
	filter := bson.D{{Key: "_id", Value: oid}}

	var doc employeeDocument
	if p.Empty() {
		err = s.coll.FindOne(ctx, filter).Decode(&doc)
	} else {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err = s.coll.FindOneAndUpdate(ctx, filter, updateDocument(p), opts).Decode(&doc)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Employee{}, domain.ErrNotFound
		}
		return domain.Employee{}, fmt.Errorf("update employee: %w", err)
	}
	return doc.employee(), nil
}

// DeleteEmployee removes the document with the given id.
func (s *MongoStore) DeleteEmployee(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Ping checks the primary is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// EnsureCollection creates the collection when it does not exist yet.
func (s *MongoStore) EnsureCollection(ctx context.Context) error {
	names, err := s.coll.Database().ListCollectionNames(ctx, bson.D{{Key: "name", Value: employeesCollection}})
	if err != nil {
		return err
	}
	if len(names) > 0 {
		return nil
	}
	return s.coll.Database().CreateCollection(ctx, employeesCollection)
}

// updateDocument turns a patch into a mongo update. Empty strings are
// unset so stored documents keep the omitempty shape.
func updateDocument(p domain.Patch) bson.D {
	set := bson.D{}
	unset := bson.D{}
	text := func(key string, v *string) {
		if v == nil {
			return
		}
		if *v == "" {
			unset = append(unset, bson.E{Key: key, Value: ""})
			return
		}
		set = append(set, bson.E{Key: key, Value: *v})
	}
	text("name", p.Name)
	text("email", p.Email)
	text("position", p.Position)
	if p.SalarySet {
		if p.Salary == nil {
			unset = append(unset, bson.E{Key: "salary", Value: ""})
		} else {
			set = append(set, bson.E{Key: "salary", Value: *p.Salary})
		}
	}

	update := bson.D{}
	if len(set) > 0 {
		update = append(update, bson.E{Key: "$set", Value: set})
	}
	if len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}
	return update
}
