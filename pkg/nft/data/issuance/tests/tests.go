package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-nft-issuer/pkg/database/query"
	"github.com/code-payments/code-nft-issuer/pkg/nft/data/issuance"
	"github.com/code-payments/code-nft-issuer/pkg/pointer"
)

func RunTests(t *testing.T, s issuance.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s issuance.Store){
		testRoundTrip,
		testUpdateConstraints,
		testGetAllByCreator,
		testCountByState,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s issuance.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()

		expected := newRecord("mint", "creator")

		_, err := s.Get(ctx, expected.Mint)
		assert.Equal(t, issuance.ErrNotFound, err)

		cloned := expected.Clone()
		require.NoError(t, s.Put(ctx, cloned))
		assert.EqualValues(t, 1, cloned.Id)

		actual, err := s.Get(ctx, expected.Mint)
		require.NoError(t, err)
		assertEquivalentRecords(t, expected, actual)

		assert.Equal(t, issuance.ErrAlreadyExists, s.Put(ctx, expected.Clone()))

		expected.Signature = pointer.String("signature")
		expected.State = issuance.StateCommitted
		cloned = expected.Clone()
		require.NoError(t, s.Update(ctx, cloned))
		assert.EqualValues(t, 1, cloned.Id)

		actual, err = s.Get(ctx, expected.Mint)
		require.NoError(t, err)
		assertEquivalentRecords(t, expected, actual)
	})
}

func testUpdateConstraints(t *testing.T, s issuance.Store) {
	t.Run("testUpdateConstraints", func(t *testing.T) {
		ctx := context.Background()

		record := newRecord("mint", "creator")
		assert.Equal(t, issuance.ErrNotFound, s.Update(ctx, record.Clone()))

		require.NoError(t, s.Put(ctx, record.Clone()))

		invalid := record.Clone()
		invalid.State = issuance.StateCommitted
		assert.Error(t, s.Update(ctx, invalid))

		invalid = record.Clone()
		invalid.State = issuance.StateAborted
		assert.Error(t, s.Update(ctx, invalid))

		invalid = record.Clone()
		invalid.State = issuance.StateMinted
		assert.Error(t, s.Update(ctx, invalid))

		// Aborted issuances may be retried
		aborted := record.Clone()
		aborted.State = issuance.StateAborted
		aborted.FailedStep = issuance.StepMintTo
		require.NoError(t, s.Update(ctx, aborted))

		restarted := record.Clone()
		require.NoError(t, s.Update(ctx, restarted))

		committed := record.Clone()
		committed.Signature = pointer.String("signature")
		committed.State = issuance.StateCommitted
		require.NoError(t, s.Update(ctx, committed))

		aborted = committed.Clone()
		aborted.State = issuance.StateAborted
		aborted.FailedStep = issuance.StepSubmit
		assert.Equal(t, issuance.ErrFinalized, s.Update(ctx, aborted))

		actual, err := s.Get(ctx, record.Mint)
		require.NoError(t, err)
		assert.Equal(t, issuance.StateCommitted, actual.State)
		assert.Equal(t, issuance.StepUnknown, actual.FailedStep)
	})
}

func testGetAllByCreator(t *testing.T, s issuance.Store) {
	t.Run("testGetAllByCreator", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetAllByCreator(ctx, "creator1", query.EmptyCursor, 10, query.Ascending)
		assert.Equal(t, issuance.ErrNotFound, err)

		var expected []*issuance.Record
		for i := 0; i < 10; i++ {
			creator := "creator1"
			if i%2 == 1 {
				creator = "creator2"
			}

			record := newRecord(fmt.Sprintf("mint%d", i), creator)
			require.NoError(t, s.Put(ctx, record))

			if creator == "creator1" {
				expected = append(expected, record)
			}
		}

		actual, err := s.GetAllByCreator(ctx, "creator1", query.EmptyCursor, 10, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, len(expected))
		for i := range expected {
			assertEquivalentRecords(t, expected[i], actual[i])
		}

		actual, err = s.GetAllByCreator(ctx, "creator1", query.EmptyCursor, 10, query.Descending)
		require.NoError(t, err)
		require.Len(t, actual, len(expected))
		for i := range expected {
			assertEquivalentRecords(t, expected[len(expected)-1-i], actual[i])
		}

		actual, err = s.GetAllByCreator(ctx, "creator1", query.ToCursor(expected[1].Id), 2, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assertEquivalentRecords(t, expected[2], actual[0])
		assertEquivalentRecords(t, expected[3], actual[1])

		actual, err = s.GetAllByCreator(ctx, "creator1", query.ToCursor(expected[3].Id), 10, query.Descending)
		require.NoError(t, err)
		require.Len(t, actual, 3)
		assertEquivalentRecords(t, expected[2], actual[0])
		assertEquivalentRecords(t, expected[0], actual[2])

		_, err = s.GetAllByCreator(ctx, "creator1", query.ToCursor(expected[len(expected)-1].Id), 10, query.Ascending)
		assert.Equal(t, issuance.ErrNotFound, err)
	})
}

func testCountByState(t *testing.T, s issuance.Store) {
	t.Run("testCountByState", func(t *testing.T) {
		ctx := context.Background()

		for _, state := range []issuance.State{issuance.StateStart, issuance.StateCommitted, issuance.StateAborted} {
			count, err := s.CountByState(ctx, state)
			require.NoError(t, err)
			assert.Zero(t, count)
		}

		for i := 0; i < 6; i++ {
			record := newRecord(fmt.Sprintf("mint%d", i), "creator")
			require.NoError(t, s.Put(ctx, record))

			switch i % 3 {
			case 1:
				record.Signature = pointer.String(fmt.Sprintf("signature%d", i))
				record.State = issuance.StateCommitted
				require.NoError(t, s.Update(ctx, record))
			case 2:
				record.State = issuance.StateAborted
				record.FailedStep = issuance.StepCreateMetadata
				require.NoError(t, s.Update(ctx, record))
			}
		}

		for _, state := range []issuance.State{issuance.StateStart, issuance.StateCommitted, issuance.StateAborted} {
			count, err := s.CountByState(ctx, state)
			require.NoError(t, err)
			assert.EqualValues(t, 2, count)
		}

		count, err := s.CountByState(ctx, issuance.StateMinted)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func newRecord(mint, creator string) *issuance.Record {
	return &issuance.Record{
		Mint:          mint,
		Creator:       creator,
		TokenAccount:  fmt.Sprintf("%s-token-account", mint),
		Metadata:      fmt.Sprintf("%s-metadata", mint),
		MasterEdition: fmt.Sprintf("%s-edition", mint),

		Name:   "Artifact #1",
		Symbol: "ART1",
		URI:    "https://example.com/1.json",

		State: issuance.StateStart,

		CreatedAt: time.Now(),
	}
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *issuance.Record) {
	assert.Equal(t, obj1.Mint, obj2.Mint)
	assert.Equal(t, obj1.Creator, obj2.Creator)
	assert.Equal(t, obj1.TokenAccount, obj2.TokenAccount)
	assert.Equal(t, obj1.Metadata, obj2.Metadata)
	assert.Equal(t, obj1.MasterEdition, obj2.MasterEdition)
	assert.Equal(t, obj1.Name, obj2.Name)
	assert.Equal(t, obj1.Symbol, obj2.Symbol)
	assert.Equal(t, obj1.URI, obj2.URI)
	assert.EqualValues(t, obj1.Signature, obj2.Signature)
	assert.Equal(t, obj1.State, obj2.State)
	assert.Equal(t, obj1.FailedStep, obj2.FailedStep)
	assert.Equal(t, obj1.CreatedAt.Unix(), obj2.CreatedAt.Unix())
}
