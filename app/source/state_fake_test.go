package source

import (
	"strconv"
	"time"
)

// fakeState is an in-memory StateRepository for source tests.
type fakeState struct {
	values map[string]string
}

func newFakeState() *fakeState {
	return &fakeState{values: make(map[string]string)}
}

func (s *fakeState) Get(key string) (string, error) {
	return s.values[key], nil
}

func (s *fakeState) Set(key, value string) error {
	s.values[key] = value
	return nil
}

func (s *fakeState) Delete(key string) error {
	delete(s.values, key)
	return nil
}

func (s *fakeState) GetOffset() (int, error) {
	value := s.values["import.offset"]
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func (s *fakeState) SetOffset(offset int) error {
	s.values["import.offset"] = strconv.Itoa(offset)
	return nil
}

func (s *fakeState) GetTime(key string) (*time.Time, error) {
	value := s.values[key]
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *fakeState) SetTime(key string, t time.Time) error {
	s.values[key] = t.UTC().Format(time.RFC3339)
	return nil
}

func (s *fakeState) TryLock(name string, ttl time.Duration) (bool, error) {
	key := "lock." + name
	if s.values[key] != "" {
		return false, nil
	}
	s.values[key] = time.Now().Add(ttl).Format(time.RFC3339)
	return true, nil
}

func (s *fakeState) Unlock(name string) error {
	delete(s.values, "lock."+name)
	return nil
}
