package student_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classboard/internal/student"
)

type fakeRepo struct {
	mu      sync.Mutex
	records map[int64]student.Record
	nextID  int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[int64]student.Record), nextID: 1}
}

func (r *fakeRepo) List(_ context.Context) ([]student.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []student.Record
	for _, rec := range r.records {
		out = append(out, rec)
	}
	return out, nil
}

func (r *fakeRepo) Insert(_ context.Context, rec student.Record) (student.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.ID = r.nextID
	r.records[rec.ID] = rec
	r.nextID++
	return rec, nil
}

func (r *fakeRepo) Update(_ context.Context, rec student.Record) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.ID]; !ok {
		return 0, nil
	}
	r.records[rec.ID] = rec
	return 1, nil
}

func (r *fakeRepo) Delete(_ context.Context, id int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return 0, nil
	}
	delete(r.records, id)
	return 1, nil
}

func TestAddAndList(t *testing.T) {
	repo := newFakeRepo()
	svc := student.NewService(repo)

	rec, err := svc.Add(context.Background(), student.Record{
		Name: "Ivan", Surname: "Petrov", FathersName: "Sergeev", Age: 20, Email: "ivan@example.com",
	})
	require.NoError(t, err)
	assert.NotZero(t, rec.ID)

	all, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAddRejectsNegativeAge(t *testing.T) {
	svc := student.NewService(newFakeRepo())

	_, err := svc.Add(context.Background(), student.Record{Name: "x", Age: -1})
	assert.Error(t, err)
}

func TestEditMissingIDIsNoOp(t *testing.T) {
	repo := newFakeRepo()
	svc := student.NewService(repo)

	err := svc.Edit(context.Background(), student.Record{ID: 999, Name: "ghost", Age: 1})
	require.NoError(t, err)

	// No error surfaced and no record created.
	all, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDeleteMissingIDIsNoOp(t *testing.T) {
	svc := student.NewService(newFakeRepo())
	assert.NoError(t, svc.Delete(context.Background(), 999))
}

func TestEditRewritesRecord(t *testing.T) {
	repo := newFakeRepo()
	svc := student.NewService(repo)

	rec, err := svc.Add(context.Background(), student.Record{Name: "Ivan", Age: 20})
	require.NoError(t, err)

	rec.Name = "Dmitri"
	rec.Age = 21
	require.NoError(t, svc.Edit(context.Background(), rec))

	all, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Dmitri", all[0].Name)
	assert.Equal(t, 21, all[0].Age)
}
