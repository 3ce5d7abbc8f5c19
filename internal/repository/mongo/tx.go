package mongo

import (
	"alcyxob/fitness-schedule/internal/repository"
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// mongoTxRunner wraps work in a multi-document transaction. Transactions
// need a replica set, so they are opt-in; when disabled fn runs directly.
type mongoTxRunner struct {
	client  *mongo.Client
	enabled bool
}

func NewTxRunner(client *mongo.Client, enabled bool) repository.TxRunner {
	return &mongoTxRunner{client: client, enabled: enabled}
}

func (r *mongoTxRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !r.enabled {
		return fn(ctx)
	}

	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
