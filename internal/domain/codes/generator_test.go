package codes

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
)

// fakeStore simulates the persisted code set with a commit step, so tests
// can race two generators against the same next number.
type fakeStore struct {
	mu    sync.Mutex
	codes map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{codes: make(map[string]bool)}
}

func (s *fakeStore) MaxSequence(_ context.Context, _ id.ID, _ Family, dayPrefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxSeq := 0
	for code := range s.codes {
		if !strings.HasPrefix(code, dayPrefix) {
			continue
		}
		seq, err := strconv.Atoi(strings.TrimPrefix(code, dayPrefix))
		if err == nil && seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq, nil
}

func (s *fakeStore) Exists(_ context.Context, _ id.ID, _ Family, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[code], nil
}

// commit simulates the unique index at commit time.
func (s *fakeStore) commit(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codes[code] {
		return apperror.NewDuplicateCode(code)
	}
	s.codes[code] = true
	return nil
}

var testDay = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func TestNext_StartsAtOne(t *testing.T) {
	g := NewGenerator(newFakeStore())

	code, err := g.Next(context.Background(), id.New(), FamilyReceipt, testDay)
	require.NoError(t, err)
	assert.Equal(t, "RC-20250101-0001", code)
}

func TestNext_ContinuesFromMax(t *testing.T) {
	store := newFakeStore()
	store.codes["PO-20250101-0007"] = true
	g := NewGenerator(store)

	code, err := g.Next(context.Background(), id.New(), FamilyPurchaseOrder, testDay)
	require.NoError(t, err)
	assert.Equal(t, "PO-20250101-0008", code)
}

func TestNext_ResetsDaily(t *testing.T) {
	store := newFakeStore()
	store.codes["WR-20250101-0042"] = true
	g := NewGenerator(store)

	nextDay := testDay.AddDate(0, 0, 1)
	code, err := g.Next(context.Background(), id.New(), FamilyWithdrawal, nextDay)
	require.NoError(t, err)
	assert.Equal(t, "WR-20250102-0001", code)
}

func TestNext_SkipsExistingProbes(t *testing.T) {
	store := newFakeStore()
	// Max is 2 but 3 and 4 exist too (e.g. written by a migration).
	store.codes["RC-20250101-0003"] = true
	store.codes["RC-20250101-0004"] = true

	// MaxSequence sees 4, so the probe starts at 5. Seed a collision at 5
	// to exercise the skip loop.
	store.codes["RC-20250101-0005"] = true
	g := NewGenerator(store)

	code, err := g.Next(context.Background(), id.New(), FamilyReceipt, testDay)
	require.NoError(t, err)
	assert.Equal(t, "RC-20250101-0006", code)
}

func TestNext_SequenceExhausted(t *testing.T) {
	store := newFakeStore()
	store.codes["RC-20250101-9999"] = true
	g := NewGenerator(store)

	_, err := g.Next(context.Background(), id.New(), FamilyReceipt, testDay)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeSequenceExhausted))
}

func TestNext_RejectsNilCompany(t *testing.T) {
	g := NewGenerator(newFakeStore())

	_, err := g.Next(context.Background(), id.Nil(), FamilyReceipt, testDay)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeMissingCompany))
}

func TestRetryOnDuplicate_RecoversRace(t *testing.T) {
	store := newFakeStore()
	g := NewGenerator(store)
	companyID := id.New()
	ctx := context.Background()

	// Two creators race on the same next number. Both probe before either
	// commits, so both see 0001; the retry loop must resolve the loser.
	var mu sync.Mutex
	var committed []string

	createOne := func(precomputed string) error {
		first := true
		return RetryOnDuplicate(ctx, DefaultRetryAttempts, func(ctx context.Context) error {
			code := precomputed
			if !first {
				var err error
				code, err = g.Next(ctx, companyID, FamilyReceipt, testDay)
				if err != nil {
					return err
				}
			}
			first = false
			if err := store.commit(code); err != nil {
				return err
			}
			mu.Lock()
			committed = append(committed, code)
			mu.Unlock()
			return nil
		})
	}

	// Both probe the empty store: both get 0001.
	codeA, err := g.Next(ctx, companyID, FamilyReceipt, testDay)
	require.NoError(t, err)
	codeB, err := g.Next(ctx, companyID, FamilyReceipt, testDay)
	require.NoError(t, err)
	require.Equal(t, codeA, codeB, "both creators race on the same candidate")

	require.NoError(t, createOne(codeA))
	require.NoError(t, createOne(codeB))

	require.Len(t, committed, 2)
	assert.ElementsMatch(t, []string{"RC-20250101-0001", "RC-20250101-0002"}, committed)
}

func TestRetryOnDuplicate_DoesNotRetryOtherErrors(t *testing.T) {
	calls := 0
	err := RetryOnDuplicate(context.Background(), 5, func(ctx context.Context) error {
		calls++
		return apperror.NewInvalidInput("bad line")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryOnDuplicate_SurfacesExhaustion(t *testing.T) {
	calls := 0
	err := RetryOnDuplicate(context.Background(), 3, func(ctx context.Context) error {
		calls++
		return apperror.NewDuplicateCode("RC-20250101-0001")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicateCode))
}
