package state

import "github.com/sweeney/temperature-notifier/internal/logic"

// FakeStore is an in-memory Store for tests.
type FakeStore struct {
	// Current is returned by Load when LoadError is nil.
	Current logic.State
	// Saved records every state passed to Save, in order.
	Saved []logic.State
	// LoadError, if set, makes Load return Nominal and this error.
	LoadError error
	// SaveError, if set, is returned by Save and the state is not stored.
	SaveError error
}

// NewFakeStore returns a FakeStore holding s.
func NewFakeStore(s logic.State) *FakeStore {
	return &FakeStore{Current: s}
}

func (f *FakeStore) Load() (logic.State, error) {
	if f.LoadError != nil {
		return logic.Nominal, f.LoadError
	}
	return f.Current, nil
}

func (f *FakeStore) Save(s logic.State) error {
	if f.SaveError != nil {
		return f.SaveError
	}
	f.Current = s
	f.Saved = append(f.Saved, s)
	return nil
}
