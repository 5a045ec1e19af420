package persistent

import (
	"context"
	"errors"
	"fmt"
)

// FieldID addresses the document id in filters and ordering. Backends map
// it onto their native id field.
const FieldID = "id"

// MaxInValues is the largest value list an In filter may carry.
const MaxInValues = 10

var (
	// ErrNotFound is returned by Update, Increment and AddToSet when the
	// target document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrInFilterTooLarge is returned when an In filter carries more than MaxInValues values.
	ErrInFilterTooLarge = fmt.Errorf("in filter accepts at most %d values", MaxInValues)
	// ErrUnsupportedQuery is returned for filter shapes a backend cannot express.
	ErrUnsupportedQuery = errors.New("unsupported query")
)

// Op is a filter comparison.
type Op string

const (
	OpEqual          Op = "=="
	OpGreaterOrEqual Op = ">="
	OpLessOrEqual    Op = "<="
	OpIn             Op = "in"
)

type Filter struct {
	Field string
	Op    Op
	Value interface{}
}

// Query selects documents from one collection. A zero Limit returns every match.
// ThenBy breaks ties of OrderBy in the same direction.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	ThenBy     string
	Descending bool
	Limit      int
}

// Where appends a filter and returns the query for chaining.
func (q Query) Where(field string, op Op, value interface{}) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: op, Value: value})
	return q
}

// validate rejects queries every backend would refuse.
func (q Query) validate() error {
	if q.Collection == "" {
		return fmt.Errorf("%w: missing collection", ErrUnsupportedQuery)
	}
	for _, f := range q.Filters {
		switch f.Op {
		case OpEqual, OpGreaterOrEqual, OpLessOrEqual:
		case OpIn:
			values, ok := toSlice(f.Value)
			if !ok {
				return fmt.Errorf("%w: in filter on %s needs a list", ErrUnsupportedQuery, f.Field)
			}
			if len(values) > MaxInValues {
				return ErrInFilterTooLarge
			}
		default:
			return fmt.Errorf("%w: operator %q", ErrUnsupportedQuery, f.Op)
		}
	}
	return nil
}

// Snapshot is one observed state of a watched document.
type Snapshot struct {
	Exists bool
	data   map[string]interface{}
}

// DataTo decodes the snapshot into dst.
func (s Snapshot) DataTo(dst interface{}) error {
	if !s.Exists {
		return ErrNotFound
	}
	return decodeDocument(s.data, dst)
}

// DocumentStore is the narrow document database surface the repository is
// written against. Documents are Go structs carrying bson, json and firestore
// tags with identical field names. Field paths may be dotted to reach nested
// fields.
type DocumentStore interface {
	// Connects to the backing database.
	Connect(ctx context.Context) error
	// Releases the backing connection.
	Disconnect(ctx context.Context) error
	// Returns a fresh document id for the collection.
	NewID(collection string) string
	// Reads one document into dst. found is false when it does not exist.
	Get(ctx context.Context, collection, id string, dst interface{}) (found bool, err error)
	// Creates or fully replaces a document.
	Set(ctx context.Context, collection, id string, doc interface{}) error
	// Sets the given fields on an existing document.
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error
	// Atomically adds deltas to numeric fields of an existing document.
	Increment(ctx context.Context, collection, id string, deltas map[string]interface{}) error
	// Atomically appends value to an array field unless already present.
	AddToSet(ctx context.Context, collection, id, field string, value interface{}) error
	// Removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
	// Runs a query and decodes the matches into dst, a pointer to a slice.
	Query(ctx context.Context, q Query, dst interface{}) error
	// Pushes every change of one document to onChange until the returned
	// function is called or ctx ends.
	Watch(ctx context.Context, collection, id string, onChange func(Snapshot), onError func(error)) (func(), error)
}

// Drivers accepted by NewStore.
const (
	DriverMongo     = "mongo"
	DriverFirestore = "firestore"
	DriverMemory    = "memory"
)

// Options configures NewStore. Only the fields of the chosen driver are read.
type Options struct {
	Driver           string
	MongoURI         string
	DBName           string
	FirestoreProject string
}

// NewStore creates and connects the DocumentStore selected by opts.Driver.
func NewStore(ctx context.Context, opts Options) (DocumentStore, error) {
	var store DocumentStore
	switch opts.Driver {
	case DriverMongo, "":
		store = NewMongoStore(opts.DBName, opts.MongoURI)
	case DriverFirestore:
		store = NewFirestoreStore(opts.FirestoreProject)
	case DriverMemory:
		store = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}

	if err := store.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}
