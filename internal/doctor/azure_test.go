package doctor

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/rileyhilliard/patchctl/internal/azcli"
	"github.com/rileyhilliard/patchctl/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAzure struct {
	version    string
	versionErr error
	account    *azcli.Account
	showErr    error
	extVersion string
	extErr     error
	subs       []string
	subsErr    error
}

func (f *fakeAzure) CLIVersion(context.Context) (string, error) { return f.version, f.versionErr }
func (f *fakeAzure) Show(context.Context) (*azcli.Account, error) {
	return f.account, f.showErr
}
func (f *fakeAzure) ExtensionVersion(context.Context, string) (string, error) {
	return f.extVersion, f.extErr
}
func (f *fakeAzure) EnabledSubscriptions(context.Context) ([]string, error) {
	return f.subs, f.subsErr
}

func found(string) (string, error)   { return "/usr/bin/az", nil }
func missing(string) (string, error) { return "", stderrors.New("not found") }

func TestAzCLICheck(t *testing.T) {
	tests := []struct {
		name     string
		lookPath func(string) (string, error)
		client   *fakeAzure
		status   CheckStatus
		message  string
	}{
		{
			name:     "not on path",
			lookPath: missing,
			client:   &fakeAzure{},
			status:   StatusFail,
			message:  "az not found on PATH",
		},
		{
			name:     "version reported",
			lookPath: found,
			client:   &fakeAzure{version: "2.64.0"},
			status:   StatusPass,
			message:  "az 2.64.0",
		},
		{
			name:     "version unknown",
			lookPath: found,
			client:   &fakeAzure{versionErr: stderrors.New("boom")},
			status:   StatusPass,
			message:  "az found (version unknown)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := &AzCLICheck{Client: tt.client, LookPath: tt.lookPath}
			result := check.Run(context.Background())
			assert.Equal(t, tt.status, result.Status)
			assert.Equal(t, tt.message, result.Message)
		})
	}
}

func TestLoginCheck(t *testing.T) {
	t.Run("signed in", func(t *testing.T) {
		acct := &azcli.Account{ID: "s1", Name: "Prod"}
		acct.User.Name = "ops@example.com"

		result := (&LoginCheck{Client: &fakeAzure{account: acct}}).Run(context.Background())
		assert.Equal(t, StatusPass, result.Status)
		assert.Equal(t, "Signed in as ops@example.com (Prod)", result.Message)
	})

	t.Run("structured auth error", func(t *testing.T) {
		err := errors.WrapWithCode(stderrors.New("token expired\nmore detail"), errors.ErrAuth,
			"Azure login required", "Run 'az login' and try again.")

		result := (&LoginCheck{Client: &fakeAzure{showErr: err}}).Run(context.Background())
		assert.Equal(t, StatusFail, result.Status)
		assert.Equal(t, "Azure login required: token expired", result.Message)
		assert.Equal(t, "Run 'az login' and try again.", result.Suggestion)
	})

	t.Run("plain error gets a default suggestion", func(t *testing.T) {
		result := (&LoginCheck{Client: &fakeAzure{showErr: stderrors.New("exit 1")}}).Run(context.Background())
		assert.Equal(t, StatusFail, result.Status)
		assert.Equal(t, "exit 1", result.Message)
		assert.Contains(t, result.Suggestion, "az login")
	})
}

func TestExtensionCheck(t *testing.T) {
	ok := (&ExtensionCheck{Client: &fakeAzure{extVersion: "2.1.0"}}).Run(context.Background())
	assert.Equal(t, StatusPass, ok.Status)
	assert.Equal(t, "resource-graph 2.1.0", ok.Message)

	bad := (&ExtensionCheck{Client: &fakeAzure{extErr: stderrors.New("not installed")}}).Run(context.Background())
	assert.Equal(t, StatusFail, bad.Status)
	assert.Equal(t, "Run: az extension add --name resource-graph", bad.Suggestion)

	assert.Equal(t, "az_extension_resource-graph", (&ExtensionCheck{}).Name())
}

func TestSubscriptionsCheck(t *testing.T) {
	tests := []struct {
		name       string
		client     *fakeAzure
		configured []string
		status     CheckStatus
		message    string
	}{
		{
			name:    "all enabled in scope",
			client:  &fakeAzure{subs: []string{"s1", "s2"}},
			status:  StatusPass,
			message: "2 subscriptions in scope",
		},
		{
			name:       "allow-list narrows scope",
			client:     &fakeAzure{subs: []string{"S1", "s2"}},
			configured: []string{"s1"},
			status:     StatusPass,
			message:    "1 subscription in scope",
		},
		{
			name:       "unknown configured subscription",
			client:     &fakeAzure{subs: []string{"s1"}},
			configured: []string{"s1", "s9"},
			status:     StatusWarn,
			message:    "1 configured subscription not enabled or not visible: s9",
		},
		{
			name:    "none visible",
			client:  &fakeAzure{},
			status:  StatusWarn,
			message: "No enabled subscriptions visible to this account",
		},
		{
			name:    "listing fails",
			client:  &fakeAzure{subsErr: errors.New(errors.ErrAuth, "Couldn't list subscriptions", "Run 'az login'")},
			status:  StatusFail,
			message: "Couldn't list subscriptions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := &SubscriptionsCheck{Client: tt.client, Configured: tt.configured}
			result := check.Run(context.Background())
			assert.Equal(t, tt.status, result.Status)
			assert.Equal(t, tt.message, result.Message)
		})
	}
}

func TestNewAzureChecks(t *testing.T) {
	client := &fakeAzure{version: "2.64.0", account: &azcli.Account{Name: "Prod"}, extVersion: "2.1.0", subs: []string{"s1"}}
	checks := NewAzureChecks(client, nil)
	require.Len(t, checks, 4)

	checks[0].(*AzCLICheck).LookPath = found
	results := RunAllParallel(context.Background(), checks)
	assert.False(t, HasIssues(results), Summary(results))
	for _, c := range checks {
		assert.Equal(t, "AZURE", c.Category())
	}
}
