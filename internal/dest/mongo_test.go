package dest_test

import (
	"testing"

	"github.com/drivamotors/tidesync/internal/dest"
)

func TestNewMongoWriter_RejectsTransactional(t *testing.T) {
	if _, err := dest.NewMongoWriter("mongodb://localhost:27017", "warehouse", true); err == nil {
		t.Fatal("expected transactional mode to be rejected")
	}
	w, err := dest.NewMongoWriter("mongodb://localhost:27017", "warehouse", false)
	if err != nil {
		t.Fatalf("constructing writer: %v", err)
	}
	if w == nil {
		t.Fatal("expected writer")
	}
}
