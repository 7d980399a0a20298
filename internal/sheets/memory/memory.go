package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"saldo/internal/core"
	"saldo/internal/sheets"
)

var (
	_ sheets.AccountReader = (*Store)(nil)
	_ sheets.AccountWriter = (*Store)(nil)
	_ sheets.EventReader   = (*Store)(nil)
	_ sheets.EventWriter   = (*Store)(nil)
)

type Store struct {
	mu        sync.Mutex
	accounts  []core.Account
	spent     []core.Expenditure
	additions []core.FundAddition
	seq       int
}

func New(accounts ...core.Account) *Store {
	return &Store{accounts: dedupe(accounts)}
}

// NewFromFiles seeds accounts from <base>/seed_accounts.txt. Each line is
// "id|kind|label|opening"; blank lines and lines starting with # are ignored.
func NewFromFiles(base string) *Store {
	accounts := readAccounts(filepath.Join(base, "seed_accounts.txt"))
	if len(accounts) == 0 {
		accounts = []core.Account{
			{ID: "groceries", Kind: core.CategoryAccount, Label: "Groceries"},
			{ID: "transport", Kind: core.CategoryAccount, Label: "Transport"},
			{ID: "card", Kind: core.PaymentMethodAccount, Label: "Card"},
			{ID: "cash", Kind: core.PaymentMethodAccount, Label: "Cash"},
		}
	}
	return New(accounts...)
}

func (s *Store) GetAccount(_ context.Context, id string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return core.Account{}, fmt.Errorf("%w: %s", core.ErrAccountNotFound, id)
}

func (s *Store) ListAccounts(_ context.Context) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Account(nil), s.accounts...), nil
}

func (s *Store) SaveAccount(_ context.Context, a core.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == a.ID {
			s.accounts[i] = a
			return nil
		}
	}
	s.accounts = append(s.accounts, a)
	return nil
}

func (s *Store) ListExpenditures(_ context.Context, a core.Account) ([]core.Expenditure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expenditure
	for _, e := range s.spent {
		if e.BelongsTo(a) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) ListFundAdditions(_ context.Context, a core.Account) ([]core.FundAddition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.FundAddition
	for _, f := range s.additions {
		if f.BelongsTo(a) {
			out = append(out, f)
		}
	}
	return out, nil
}

// AppendExpenditure stores the expenditure and returns a synthetic row reference.
func (s *Store) AppendExpenditure(_ context.Context, e core.Expenditure) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextRef()
	s.spent = append(s.spent, e)
	return e.ID, nil
}

func (s *Store) AppendFundAddition(_ context.Context, f core.FundAddition) (string, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = s.nextRef()
	s.additions = append(s.additions, f)
	return f.ID, nil
}

// ImportExpenditures is all or nothing: one invalid expenditure stores none.
func (s *Store) ImportExpenditures(_ context.Context, es []core.Expenditure) (int, error) {
	for i, e := range es {
		if err := e.Validate(); err != nil {
			return 0, fmt.Errorf("expenditure %d: %w", i, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range es {
		e.ID = s.nextRef()
		s.spent = append(s.spent, e)
	}
	return len(es), nil
}

func (s *Store) nextRef() string {
	s.seq++
	return fmt.Sprintf("mem:%d", s.seq)
}

func readAccounts(path string) []core.Account {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.Account
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if a, ok := parseAccountLine(line); ok {
			out = append(out, a)
		}
	}
	return dedupe(out)
}

func parseAccountLine(line string) (core.Account, bool) {
	parts := strings.Split(line, "|")
	for len(parts) < 4 {
		parts = append(parts, "")
	}
	kind, err := core.ParseAccountKind(parts[1])
	if err != nil {
		return core.Account{}, false
	}
	a := core.Account{
		ID:    strings.TrimSpace(parts[0]),
		Kind:  kind,
		Label: strings.TrimSpace(parts[2]),
	}
	if opening := strings.TrimSpace(parts[3]); opening != "" {
		m, err := core.ParseMoney(opening)
		if err != nil {
			return core.Account{}, false
		}
		a.OpeningBalance = m
	}
	return a, a.Validate() == nil
}

// dedupe keeps the first account for each id, preserving input order.
func dedupe(in []core.Account) []core.Account {
	seen := map[string]struct{}{}
	out := make([]core.Account, 0, len(in))
	for _, a := range in {
		if _, ok := seen[a.ID]; ok {
			continue
		}
		seen[a.ID] = struct{}{}
		out = append(out, a)
	}
	return out
}
