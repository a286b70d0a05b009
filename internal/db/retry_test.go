package db

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
	"tradebill/api/internal/utils"
)

// mockMongoDuplicateKeyError creates an error that IsMongoDuplicateKeyError recognizes.
func mockMongoDuplicateKeyError(key string) error {
	mongoErr := mongo.WriteError{
		Code:    11000,
		Message: fmt.Sprintf("E11000 duplicate key error collection: test.invoices index: _id_ dup key: { : \"%s\" }", key),
	}
	return mongo.WriteException{WriteErrors: []mongo.WriteError{mongoErr}}
}

func TestWithRetries_SuccessfulFirstAttempt(t *testing.T) {
	var opCalled int
	operation := func() error {
		opCalled++
		return nil
	}

	err := WithRetries(operation, 3, IsMongoDuplicateKeyError)
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if opCalled != 1 {
		t.Errorf("Expected operation to be called 1 time, got %d", opCalled)
	}
}

func TestWithRetries_FailureNonDuplicateKey(t *testing.T) {
	var opCalled int
	expectedErr := errors.New("some other error")
	operation := func() error {
		opCalled++
		return expectedErr
	}

	err := WithRetries(operation, 3, IsMongoDuplicateKeyError)
	if !errors.Is(err, expectedErr) {
		t.Errorf("Expected error %v, got %v", expectedErr, err)
	}
	if opCalled != 1 {
		t.Errorf("Expected operation to be called 1 time, got %d", opCalled)
	}
}

func TestWithRetries_ExhaustRetries(t *testing.T) {
	var opCalled int
	collidingID := utils.SixID{0, 0, 0, 0, 0, 1}

	operation := func() error {
		opCalled++
		return mockMongoDuplicateKeyError(collidingID.String())
	}

	maxRetries := 3
	err := WithRetries(operation, maxRetries, IsMongoDuplicateKeyError)

	if err == nil {
		t.Fatal("Expected a duplicate key error, got nil")
	}
	if !IsMongoDuplicateKeyError(err) {
		t.Errorf("Expected a Mongo duplicate key error, got %T: %v", err, err)
	}

	expectedOpCalls := maxRetries + 1
	if opCalled != expectedOpCalls {
		t.Errorf("Expected operation to be called %d times, got %d", expectedOpCalls, opCalled)
	}
}

func TestWithRetries_CollisionResolves(t *testing.T) {
	originalHook := utils.NewSixIDHook
	defer func() { utils.NewSixIDHook = originalHook }()

	id1 := utils.SixID{1, 2, 3, 4, 5, 1}
	id2 := utils.SixID{1, 2, 3, 4, 5, 2}

	idsToReturn := []utils.SixID{id1, id1, id2}
	hookCallCount := 0
	utils.NewSixIDHook = func() (utils.SixID, bool) {
		if hookCallCount < len(idsToReturn) {
			id := idsToReturn[hookCallCount]
			hookCallCount++
			return id, true
		}
		return utils.SixID{}, false
	}

	insertedIDs := make(map[utils.SixID]bool)
	// Pre-populate to make the first attempt with id1 a collision
	insertedIDs[id1] = true

	var opCalled int

	operation := func() error {
		opCalled++
		newID := utils.NewSixID()

		if insertedIDs[newID] {
			return mockMongoDuplicateKeyError(newID.String())
		}
		insertedIDs[newID] = true
		return nil
	}

	err := WithRetries(operation, 3, IsMongoDuplicateKeyError)
	if err != nil {
		t.Fatalf("Expected no error as collision should resolve, got: %v", err)
	}

	// Op1: id1 collides. Op2: id1 collides again. Op3: id2 succeeds.
	if opCalled != 3 {
		t.Errorf("Expected operation to be called 3 times, got %d", opCalled)
	}
	if !insertedIDs[id2] {
		t.Errorf("Expected ID %s to be inserted after retry", id2.String())
	}
	if hookCallCount != 3 {
		t.Errorf("Expected NewSixIDHook to be called 3 times, got %d", hookCallCount)
	}
}
