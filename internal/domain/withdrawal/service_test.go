package withdrawal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
	"stockpit/internal/core/types"
	"stockpit/internal/domain/codes"
)

type nopTxManager struct{}

func (nopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memCodeStore struct{ codes map[string]bool }

func (s *memCodeStore) MaxSequence(context.Context, id.ID, codes.Family, string) (int, error) {
	return len(s.codes), nil
}

func (s *memCodeStore) Exists(_ context.Context, _ id.ID, _ codes.Family, code string) (bool, error) {
	return s.codes[code], nil
}

type memRepo struct {
	requests map[id.ID]*Request
	lines    map[id.ID][]Line
}

func newMemRepo() *memRepo {
	return &memRepo{requests: make(map[id.ID]*Request), lines: make(map[id.ID][]Line)}
}

func (r *memRepo) Create(_ context.Context, req *Request) error {
	stored := *req
	r.requests[req.ID] = &stored
	return nil
}

func (r *memRepo) GetByID(_ context.Context, companyID, requestID id.ID) (*Request, error) {
	req, ok := r.requests[requestID]
	if !ok || req.CompanyID != companyID {
		return nil, apperror.NewNotFound("withdrawal_request", requestID.String())
	}
	out := *req
	return &out, nil
}

func (r *memRepo) GetLines(_ context.Context, requestID id.ID) ([]Line, error) {
	return r.lines[requestID], nil
}

func (r *memRepo) SaveLines(_ context.Context, requestID id.ID, lines []Line) error {
	r.lines[requestID] = lines
	return nil
}

func (r *memRepo) List(_ context.Context, companyID id.ID, filter ListFilter) ([]*Request, error) {
	var out []*Request
	for _, req := range r.requests {
		if req.CompanyID != companyID {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func (r *memRepo) UpdateStatus(_ context.Context, companyID, requestID id.ID, status Status) error {
	req, ok := r.requests[requestID]
	if !ok || req.CompanyID != companyID {
		return apperror.NewNotFound("withdrawal_request", requestID.String())
	}
	req.Status = status
	return nil
}

func qty(v int64) types.Quantity { return types.NewQuantityFromInt(v) }

func newService(repo *memRepo) *Service {
	gen := codes.NewGenerator(&memCodeStore{codes: make(map[string]bool)})
	return NewService(repo, gen, nopTxManager{})
}

func TestCreate_GeneratesNumberAndPersistsLines(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)

	r := NewRequest(id.New(), id.New())
	r.Requester = "maintenance"
	r.AddLine(id.New(), qty(5))
	r.AddLine(id.New(), qty(3))

	require.NoError(t, svc.Create(context.Background(), r))

	assert.Regexp(t, `^WR-\d{8}-\d{4}$`, r.Number)
	assert.Equal(t, StatusOpen, r.Status)
	require.Len(t, repo.lines[r.ID], 2)
	assert.Equal(t, 1, repo.lines[r.ID][0].LineNo)
	assert.Equal(t, 2, repo.lines[r.ID][1].LineNo)
}

func TestCreate_RejectsEmptyLines(t *testing.T) {
	svc := newService(newMemRepo())

	r := NewRequest(id.New(), id.New())
	err := svc.Create(context.Background(), r)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidInput))
}

func TestCreate_RejectsNonPositiveQuantity(t *testing.T) {
	svc := newService(newMemRepo())

	r := NewRequest(id.New(), id.New())
	r.AddLine(id.New(), qty(0))
	err := svc.Create(context.Background(), r)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidInput))
}

func TestCreate_RejectsMissingWarehouse(t *testing.T) {
	svc := newService(newMemRepo())

	r := NewRequest(id.New(), id.Nil())
	r.AddLine(id.New(), qty(1))
	err := svc.Create(context.Background(), r)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeMissingWarehouse))
}

func TestMarkIssued_FlipsStatus(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)

	r := NewRequest(id.New(), id.New())
	r.AddLine(id.New(), qty(2))
	require.NoError(t, svc.Create(context.Background(), r))

	require.NoError(t, svc.MarkIssued(context.Background(), r.CompanyID, r.ID))

	got, err := svc.Get(context.Background(), r.CompanyID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusIssued, got.Status)
	require.Len(t, got.Lines, 1)
}

func TestGet_UnknownRequest(t *testing.T) {
	svc := newService(newMemRepo())

	_, err := svc.Get(context.Background(), id.New(), id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
