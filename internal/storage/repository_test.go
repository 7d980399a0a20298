package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"saldo/internal/core"
	"saldo/internal/ledger"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "saldo.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

var at = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	if _, err := repo.GetAccount(ctx, "food"); !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	food := core.Account{ID: "food", Kind: core.CategoryAccount, Label: "Food", OpeningBalance: core.Cents(50000)}
	if err := repo.SaveAccount(ctx, food); err != nil {
		t.Fatalf("SaveAccount: %v", err)
	}
	if err := repo.SaveAccount(ctx, core.Account{ID: "card", Kind: core.PaymentMethodAccount}); err != nil {
		t.Fatalf("SaveAccount: %v", err)
	}
	if err := repo.SaveAccount(ctx, core.Account{ID: "bad", Kind: "nope"}); !errors.Is(err, core.ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}

	got, err := repo.GetAccount(ctx, "food")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if got != food {
		t.Fatalf("got %+v, want %+v", got, food)
	}

	food.Label = "Groceries"
	if err := repo.SaveAccount(ctx, food); err != nil {
		t.Fatalf("SaveAccount update: %v", err)
	}
	all, err := repo.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 accounts, got %+v", all)
	}
	for _, a := range all {
		if a.ID == "food" && a.Label != "Groceries" {
			t.Fatalf("update not applied: %+v", a)
		}
	}
}

func TestEventsFeedLedger(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	food := core.Account{ID: "food", Kind: core.CategoryAccount, OpeningBalance: core.Cents(50000)}

	ref, err := repo.AppendExpenditure(ctx, core.Expenditure{AccountID: "food", PaymentMethod: "card", Timestamp: at, Amount: core.Cents(5000), Note: "groceries"})
	if err != nil || ref == "" {
		t.Fatalf("AppendExpenditure: ref=%q err=%v", ref, err)
	}
	if _, err := repo.AppendExpenditure(ctx, core.Expenditure{AccountID: "food", PaymentMethod: "cash", Timestamp: at.AddDate(0, 0, 2), Amount: core.Cents(10000), Note: "dinner"}); err != nil {
		t.Fatalf("AppendExpenditure: %v", err)
	}
	if _, err := repo.AppendExpenditure(ctx, core.Expenditure{AccountID: "travel", PaymentMethod: "card", Timestamp: at, Amount: core.Cents(700), Note: "train"}); err != nil {
		t.Fatalf("AppendExpenditure: %v", err)
	}
	if _, err := repo.AppendFundAddition(ctx, core.FundAddition{AccountID: "food", Timestamp: at.AddDate(0, 0, 1), Amount: core.Cents(20000)}); err != nil {
		t.Fatalf("AppendFundAddition: %v", err)
	}

	exps, err := repo.ListExpenditures(ctx, food)
	if err != nil {
		t.Fatalf("ListExpenditures: %v", err)
	}
	adds, err := repo.ListFundAdditions(ctx, food)
	if err != nil {
		t.Fatalf("ListFundAdditions: %v", err)
	}
	if len(exps) != 2 || len(adds) != 1 {
		t.Fatalf("expected 2 expenditures and 1 addition, got %d and %d", len(exps), len(adds))
	}
	if !exps[0].Timestamp.Equal(at) || exps[0].Amount.Cents != 5000 || exps[0].Note != "groceries" {
		t.Fatalf("expenditure did not survive storage: %+v", exps[0])
	}

	rows, err := ledger.Build(food, exps, adds)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := rows[len(rows)-1].RunningBalance.Cents; got != 55000 {
		t.Fatalf("expected closing 55000, got %d", got)
	}

	card := core.Account{ID: "card", Kind: core.PaymentMethodAccount}
	byCard, err := repo.ListExpenditures(ctx, card)
	if err != nil {
		t.Fatalf("ListExpenditures card: %v", err)
	}
	if len(byCard) != 2 {
		t.Fatalf("expected both card expenditures, got %+v", byCard)
	}
}

func TestAppendRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	if _, err := repo.AppendExpenditure(ctx, core.Expenditure{AccountID: "food", PaymentMethod: "card", Timestamp: at, Note: "x"}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := repo.AppendFundAddition(ctx, core.FundAddition{AccountID: "food", Amount: core.Cents(1)}); !errors.Is(err, core.ErrZeroTimestamp) {
		t.Fatalf("expected ErrZeroTimestamp, got %v", err)
	}
}

func TestImportExpendituresIsAtomic(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	placeholder := core.Account{ID: core.PlaceholderCategory, Kind: core.CategoryAccount}

	batch := []core.Expenditure{
		{AccountID: core.PlaceholderCategory, PaymentMethod: "card", Timestamp: at, Amount: core.Cents(100), Note: "a"},
		{AccountID: core.PlaceholderCategory, PaymentMethod: "card", Timestamp: at, Amount: core.Cents(0), Note: "b"},
	}
	if _, err := repo.ImportExpenditures(ctx, batch); err == nil {
		t.Fatalf("expected error for invalid batch")
	}
	if got, _ := repo.ListExpenditures(ctx, placeholder); len(got) != 0 {
		t.Fatalf("failed import must store nothing, got %+v", got)
	}

	batch[1].Amount = core.Cents(200)
	n, err := repo.ImportExpenditures(ctx, batch)
	if err != nil || n != 2 {
		t.Fatalf("ImportExpenditures: n=%d err=%v", n, err)
	}
	got, err := repo.ListExpenditures(ctx, placeholder)
	if err != nil {
		t.Fatalf("ListExpenditures: %v", err)
	}
	if len(got) != 2 || got[0].ID == "" || got[0].ID == got[1].ID {
		t.Fatalf("imported expenditures need distinct ids, got %+v", got)
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "saldo.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	if err := repo.SaveAccount(ctx, core.Account{ID: "food", Kind: core.CategoryAccount}); err != nil {
		t.Fatalf("SaveAccount: %v", err)
	}
	repo.Close()

	again, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	if _, err := again.GetAccount(ctx, "food"); err != nil {
		t.Fatalf("account lost after reopen: %v", err)
	}
}
