package repository

import (
	"testing"

	"github.com/hitoshi/bandmatch/internal/model"
)

// PostgresAccountRepoはAccountRepositoryインターフェースを満たすことを検証
func TestPostgresAccountRepo_ImplementsInterface(t *testing.T) {
	var _ AccountRepository = (*PostgresAccountRepo)(nil)
}

// NewPostgresAccountRepoが正しく初期化されることを検証
func TestNewPostgresAccountRepo_Initializes(t *testing.T) {
	repo := NewPostgresAccountRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// SearchMatchesに渡す検索タイプの文字列変換を検証
func TestSearchTypes_StringConversion(t *testing.T) {
	types := []model.SearchType{model.SearchTypeForm, model.SearchTypeEither}
	strs := make([]string, len(types))
	for i, st := range types {
		strs[i] = string(st)
	}

	if strs[0] != "Form" || strs[1] != "Either" {
		t.Errorf("unexpected conversion: %v", strs)
	}
}

// 検索半径のkm→m変換を検証（earth_distanceはメートル単位で比較する）
func TestSearchRadius_MeterConversion(t *testing.T) {
	seeker := &model.Account{SearchRadiusKm: 50}
	meters := seeker.SearchRadiusKm * 1000
	if meters != 50000 {
		t.Errorf("meters = %v, want 50000", meters)
	}
}
