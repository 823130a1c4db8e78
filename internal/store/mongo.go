package store

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employee-directory/internal"
	"github.com/antonio-alexander/go-employee-directory/internal/data"
	"github.com/antonio-alexander/go-employee-directory/internal/utilities"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	collectionEmployees string = "employees"
	collectionCounters  string = "counters"
	counterEmployees    string = "employees"
)

var employeeIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetName("uniq_id").SetUnique(true),
	},
	{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("uniq_email").SetUnique(true),
	},
}

type employeeDocument struct {
	Id            int64     `bson:"id"`
	EmployerId    string    `bson:"employerId"`
	FullName      string    `bson:"fullName"`
	DateOfJoining string    `bson:"dateOfJoining"`
	Department    string    `bson:"department"`
	Designation   string    `bson:"designation"`
	Location      string    `bson:"location"`
	Email         string    `bson:"email"`
	Phone         string    `bson:"phone"`
	CreatedAt     time.Time `bson:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt"`
}

func (d *employeeDocument) toEmployee() *data.Employee {
	return &data.Employee{
		Id:            d.Id,
		EmployerId:    d.EmployerId,
		FullName:      d.FullName,
		DateOfJoining: d.DateOfJoining,
		Department:    d.Department,
		Designation:   d.Designation,
		Location:      d.Location,
		Email:         d.Email,
		Phone:         d.Phone,
	}
}

type mongoStore struct {
	sync.RWMutex
	config struct {
		Uri        string        `json:"uri"`
		Database   string        `json:"database"`
		Collection string        `json:"collection"`
		Timeout    time.Duration `json:"timeout"`
		connect    connectConfig
	}
	client    *mongo.Client
	employees *mongo.Collection
	counters  *mongo.Collection
	utilities.Logger
	opened bool
}

// NewMongo creates a store backed by a mongo document store, ids are issued
// from a counter document so they're unique across processes
func NewMongo(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Store
} {
	m := &mongoStore{Logger: utilities.NewLogger()}
	m.config.Uri = "mongodb://localhost:27017"
	m.config.Database = "employees"
	m.config.Collection = collectionEmployees
	for _, parameter := range parameters {
		switch v := parameter.(type) {
		case utilities.Logger:
			m.Logger = v
		}
	}
	return m
}

func (m *mongoStore) Configure(envs map[string]string) error {
	if uri := envs["MONGO_URI"]; uri != "" {
		m.config.Uri = uri
	}
	if database := envs["MONGO_DATABASE"]; database != "" {
		m.config.Database = database
	}
	if collection := envs["MONGO_COLLECTION"]; collection != "" {
		m.config.Collection = collection
	}
	if _, ok := envs["MONGO_TIMEOUT"]; ok {
		i, _ := strconv.ParseInt(envs["MONGO_TIMEOUT"], 10, 64)
		m.config.Timeout = time.Duration(i) * time.Second
	}
	m.config.connect.configure(envs)
	return nil
}

func (m *mongoStore) findMaxId(ctx context.Context) (int64, error) {
	var document employeeDocument

	err := m.employees.FindOne(ctx, bson.D{},
		options.FindOne().SetSort(bson.D{{Key: "id", Value: -1}})).Decode(&document)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return 0, nil
	case err != nil:
		return -1, err
	}
	return document.Id, nil
}

// nextId atomically increments the employees counter and returns it
func (m *mongoStore) nextId(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}

	if err := m.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": counterEmployees},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter); err != nil {
		return -1, err
	}
	return counter.Seq, nil
}

func (m *mongoStore) Open(ctx context.Context) error {
	m.Lock()
	defer m.Unlock()

	if m.opened {
		return nil
	}
	if err := m.config.connect.connect(ctx, func() error {
		ctx, cancel := withTimeout(ctx, m.config.Timeout)
		defer cancel()
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(m.config.Uri))
		if err != nil {
			return err
		}
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			_ = client.Disconnect(context.Background())
			m.Error(ctx, "unable to ping mongo: %s", err)
			return err
		}
		m.client = client
		return nil
	}); err != nil {
		return err
	}
	database := m.client.Database(m.config.Database)
	m.employees = database.Collection(m.config.Collection)
	m.counters = database.Collection(collectionCounters)
	if _, err := m.employees.Indexes().CreateMany(ctx, employeeIndexes); err != nil {
		return errors.Wrap(err, "unable to create employee indexes")
	}
	//KIM: the counter is seeded from the current maximum so ids continue
	// from where a store without a counter document left off
	maxId, err := m.findMaxId(ctx)
	if err != nil {
		return errors.Wrap(err, "unable to find maximum employee id")
	}
	if _, err := m.counters.UpdateOne(ctx,
		bson.M{"_id": counterEmployees},
		bson.M{"$max": bson.M{"seq": maxId}},
		options.Update().SetUpsert(true)); err != nil {
		return errors.Wrap(err, "unable to seed employee counter")
	}
	m.Info(ctx, "connected to mongo database: %s", m.config.Database)
	m.opened = true
	return nil
}

func (m *mongoStore) Close(ctx context.Context) error {
	m.Lock()
	defer m.Unlock()

	if !m.opened {
		return nil
	}
	if err := m.client.Disconnect(ctx); err != nil {
		m.Error(ctx, "error while disconnecting from mongo: %s", err)
	}
	m.opened = false
	return nil
}

// Clear deletes all employee documents, the counter is left alone so ids
// are never reissued
func (m *mongoStore) Clear(ctx context.Context) error {
	m.RLock()
	defer m.RUnlock()

	if !m.opened {
		return data.NewStoreError(operationClear, errNotOpened)
	}
	ctx, cancel := withTimeout(ctx, m.config.Timeout)
	defer cancel()
	if _, err := m.employees.DeleteMany(ctx, bson.D{}); err != nil {
		return data.NewStoreError(operationClear, err)
	}
	return nil
}

func (m *mongoStore) EmployeesRead(ctx context.Context) ([]*data.Employee, error) {
	var documents []employeeDocument

	ctx, cancel := withTimeout(ctx, m.config.Timeout)
	defer cancel()
	cursor, err := m.employees.Find(ctx, bson.D{},
		options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, data.NewStoreError(operationEmployeesRead, err)
	}
	if err := cursor.All(ctx, &documents); err != nil {
		return nil, data.NewStoreError(operationEmployeesRead, err)
	}
	employees := make([]*data.Employee, 0, len(documents))
	for i := range documents {
		employees = append(employees, documents[i].toEmployee())
	}
	return employees, nil
}

func (m *mongoStore) employeeFind(ctx context.Context, operation string, filter bson.M) (*data.Employee, error) {
	var document employeeDocument

	ctx, cancel := withTimeout(ctx, m.config.Timeout)
	defer cancel()
	err := m.employees.FindOne(ctx, filter).Decode(&document)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, data.ErrEmployeeNotFound
	case err != nil:
		return nil, data.NewStoreError(operation, err)
	}
	return document.toEmployee(), nil
}

func (m *mongoStore) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	return m.employeeFind(ctx, operationEmployeeRead, bson.M{"id": id})
}

func (m *mongoStore) EmployeeReadByEmail(ctx context.Context, email string) (*data.Employee, error) {
	return m.employeeFind(ctx, operationEmployeeReadByEmail, bson.M{"email": email})
}

func (m *mongoStore) EmployeeCreate(ctx context.Context, payload data.EmployeePayload) (*data.Employee, error) {
	ctx, cancel := withTimeout(ctx, m.config.Timeout)
	defer cancel()
	id, err := m.nextId(ctx)
	if err != nil {
		return nil, data.NewStoreError(operationEmployeeCreate, err)
	}
	tNow := time.Now().UTC()
	document := employeeDocument{
		Id:            id,
		EmployerId:    payload.EmployerId,
		FullName:      payload.FullName,
		DateOfJoining: payload.DateOfJoining,
		Department:    payload.Department,
		Designation:   payload.Designation,
		Location:      payload.Location,
		Email:         payload.Email,
		Phone:         payload.Phone,
		CreatedAt:     tNow,
		UpdatedAt:     tNow,
	}
	if _, err := m.employees.InsertOne(ctx, &document); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, data.ErrEmployeeConflict
		}
		return nil, data.NewStoreError(operationEmployeeCreate, err)
	}
	return document.toEmployee(), nil
}

func (m *mongoStore) EmployeeDelete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := withTimeout(ctx, m.config.Timeout)
	defer cancel()
	result, err := m.employees.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return false, data.NewStoreError(operationEmployeeDelete, err)
	}
	return result.DeletedCount > 0, nil
}
