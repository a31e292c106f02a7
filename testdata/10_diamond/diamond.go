package diamond

import "context"

type Base interface {
	ID() string
}

type Saver interface {
	Base
	Save(ctx context.Context) error
}

type Loader interface {
	Base
	Load(ctx context.Context) error
}

type Persister interface {
	Saver
	Loader
	Flush() error
}

// Ordered is a constraint and cannot be mocked.
type Ordered interface {
	~int | ~string
}

type DB struct{}

func (d DB) Save(context.Context) error { return nil }
func (d DB) Load(context.Context) error { return nil }
