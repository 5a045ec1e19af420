package persistent

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore is a DocumentStore backed by Cloud Firestore.
type FirestoreStore struct {
	client    *firestore.Client
	projectID string
}

// NewFirestoreStore creates a store for the given project. Credentials are
// resolved by the client library from the environment when Connect runs.
func NewFirestoreStore(projectID string) *FirestoreStore {
	return &FirestoreStore{projectID: projectID}
}

func (f *FirestoreStore) Connect(ctx context.Context) error {
	client, err := firestore.NewClient(ctx, f.projectID)
	if err != nil {
		return fmt.Errorf("error connecting to Firestore: %w", err)
	}
	f.client = client
	return nil
}

func (f *FirestoreStore) Disconnect(ctx context.Context) error {
	if f.client == nil {
		return nil
	}
	return f.client.Close()
}

func (f *FirestoreStore) NewID(collection string) string {
	return f.client.Collection(collection).NewDoc().ID
}

func (f *FirestoreStore) Get(ctx context.Context, collection, id string, dst interface{}) (bool, error) {
	snap, err := f.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s/%s: %w", collection, id, err)
	}
	if err := decodeDocument(fromFirestore(snap), dst); err != nil {
		return false, err
	}
	return true, nil
}

func (f *FirestoreStore) Set(ctx context.Context, collection, id string, doc interface{}) error {
	if _, err := f.client.Collection(collection).Doc(id).Set(ctx, doc); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *FirestoreStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	return f.update(ctx, collection, id, updates)
}

func (f *FirestoreStore) Increment(ctx context.Context, collection, id string, deltas map[string]interface{}) error {
	updates := make([]firestore.Update, 0, len(deltas))
	for path, delta := range deltas {
		updates = append(updates, firestore.Update{Path: path, Value: firestore.Increment(delta)})
	}
	return f.update(ctx, collection, id, updates)
}

func (f *FirestoreStore) AddToSet(ctx context.Context, collection, id, field string, value interface{}) error {
	return f.update(ctx, collection, id, []firestore.Update{{Path: field, Value: firestore.ArrayUnion(value)}})
}

func (f *FirestoreStore) update(ctx context.Context, collection, id string, updates []firestore.Update) error {
	_, err := f.client.Collection(collection).Doc(id).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := f.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *FirestoreStore) Query(ctx context.Context, q Query, dst interface{}) error {
	if err := q.validate(); err != nil {
		return err
	}

	coll := f.client.Collection(q.Collection)
	query := coll.Query
	for _, filter := range q.Filters {
		if filter.Field == FieldID {
			query = query.Where(firestore.DocumentID, string(filter.Op), f.docRefs(coll, filter))
			continue
		}
		query = query.Where(filter.Field, string(filter.Op), filter.Value)
	}
	if q.OrderBy != "" {
		direction := firestore.Asc
		if q.Descending {
			direction = firestore.Desc
		}
		for _, path := range []string{q.OrderBy, q.ThenBy} {
			if path == "" {
				continue
			}
			if path == FieldID {
				path = firestore.DocumentID
			}
			query = query.OrderBy(path, direction)
		}
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", q.Collection, err)
	}
	docs := make([]map[string]interface{}, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, fromFirestore(snap))
	}
	return decodeAll(docs, dst)
}

// docRefs converts id filter values into document references.
func (f *FirestoreStore) docRefs(coll *firestore.CollectionRef, filter Filter) interface{} {
	if filter.Op != OpIn {
		return coll.Doc(fmt.Sprint(filter.Value))
	}
	values, _ := toSlice(filter.Value)
	refs := make([]*firestore.DocumentRef, 0, len(values))
	for _, v := range values {
		refs = append(refs, coll.Doc(fmt.Sprint(v)))
	}
	return refs
}

func (f *FirestoreStore) Watch(ctx context.Context, collection, id string, onChange func(Snapshot), onError func(error)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	iter := f.client.Collection(collection).Doc(id).Snapshots(ctx)

	go func() {
		defer iter.Stop()
		for {
			snap, err := iter.Next()
			if errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled || ctx.Err() != nil {
				return
			}
			if err != nil {
				log.Printf("snapshot listener on %s/%s failed: %v", collection, id, err)
				onError(err)
				return
			}
			if !snap.Exists() {
				onChange(Snapshot{})
				continue
			}
			onChange(Snapshot{Exists: true, data: fromFirestore(snap)})
		}
	}()

	return cancel, nil
}

func fromFirestore(snap *firestore.DocumentSnapshot) map[string]interface{} {
	doc := normalizeMap(snap.Data())
	doc[FieldID] = snap.Ref.ID
	return doc
}
