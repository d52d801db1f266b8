package fakeexchanger

import (
	"context"
	"net/http"
	"sync"

	"github.com/pkg/errors"

	"github.com/jrsteele09/coursehub-session/auth"
	"github.com/jrsteele09/coursehub-session/credentials"
	"github.com/jrsteele09/coursehub-session/exchange"
	"github.com/jrsteele09/coursehub-session/token"
)

var _ auth.Exchanger = (*FakeExchanger)(nil)

type account struct {
	password string
	subject  token.Subject
}

// FakeExchanger issues real signed tokens from a Minter for in-memory accounts.
// Errors can be injected and Renew can be held open with RenewGate.
type FakeExchanger struct {
	minter   *token.Minter
	accounts map[string]account
	lock     sync.Mutex

	IssueErr    error
	RenewErr    error
	RegisterErr error

	// RenewGate, when set, makes Renew wait for a receive before answering.
	// RenewEntered receives once per Renew call that reaches the gate.
	RenewGate    chan struct{}
	RenewEntered chan struct{}

	issueCalls    int
	renewCalls    int
	registerCalls int
}

func NewFakeExchanger(minter *token.Minter) *FakeExchanger {
	return &FakeExchanger{
		minter:   minter,
		accounts: make(map[string]account),
	}
}

// AddAccount makes email/password valid for subject.
func (f *FakeExchanger) AddAccount(email, password string, subject token.Subject) {
	f.lock.Lock()
	defer f.lock.Unlock()
	subject.Email = email
	f.accounts[email] = account{password: password, subject: subject}
}

func (f *FakeExchanger) Issue(ctx context.Context, email, password string) (credentials.Pair, error) {
	f.lock.Lock()
	f.issueCalls++
	acct, ok := f.accounts[email]
	injected := f.IssueErr
	f.lock.Unlock()

	if injected != nil {
		return credentials.Pair{}, injected
	}
	if !ok || acct.password != password {
		return credentials.Pair{}, &exchange.RejectedError{
			Op:     exchange.OpIssue,
			Status: http.StatusUnauthorized,
			Detail: "No active account found with the given credentials",
		}
	}
	return f.mint(acct.subject)
}

func (f *FakeExchanger) Renew(ctx context.Context, refresh string) (credentials.Pair, error) {
	f.lock.Lock()
	f.renewCalls++
	gate, entered, injected := f.RenewGate, f.RenewEntered, f.RenewErr
	f.lock.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if injected != nil {
		return credentials.Pair{}, injected
	}

	identity, err := f.minter.Verify(refresh, token.TypeRefresh)
	if err != nil {
		return credentials.Pair{}, &exchange.RejectedError{
			Op:     exchange.OpRenew,
			Status: http.StatusUnauthorized,
			Detail: "Token is invalid or expired",
			Code:   "token_not_valid",
		}
	}
	return f.mint(token.Subject{
		ID:       identity.SubjectID,
		Username: identity.Username,
		Email:    identity.Email,
		FullName: identity.FullName,
		Role:     identity.Role,
	})
}

func (f *FakeExchanger) Register(ctx context.Context, reg exchange.Registration) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.registerCalls++

	if f.RegisterErr != nil {
		return f.RegisterErr
	}
	if _, exists := f.accounts[reg.Email]; exists {
		return &exchange.RejectedError{
			Op:         exchange.OpRegister,
			Status:     http.StatusBadRequest,
			Fields:     map[string][]string{"email": {"user with this email already exists."}},
			FieldOrder: []string{"email"},
		}
	}
	f.accounts[reg.Email] = account{
		password: reg.Password,
		subject: token.Subject{
			ID:       reg.Email,
			Username: reg.Email,
			Email:    reg.Email,
			FullName: reg.FullName,
			Role:     reg.Role,
		},
	}
	return nil
}

func (f *FakeExchanger) IssueCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.issueCalls
}

func (f *FakeExchanger) RenewCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.renewCalls
}

func (f *FakeExchanger) RegisterCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.registerCalls
}

func (f *FakeExchanger) mint(subject token.Subject) (credentials.Pair, error) {
	access, refresh, err := f.minter.Mint(subject)
	if err != nil {
		return credentials.Pair{}, errors.Wrap(err, "mint pair")
	}
	return credentials.Pair{Access: access, Refresh: refresh}, nil
}
