package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vcafe/identity-service/internal/domain"
	"github.com/vcafe/identity-service/internal/repository/memory"
	"github.com/vcafe/identity-service/internal/service"
	"github.com/vcafe/identity-service/internal/testutil"
)

func TestIdentityResolver_FirstLoginCreatesUser(t *testing.T) {
	repo := memory.NewUserRepository()
	resolver := service.NewIdentityResolver(repo)
	ctx := context.Background()

	profile := testutil.NewProfileBuilder(domain.ProviderGoogle).
		WithProviderID("42").
		WithEmail("a@x.com").
		WithDisplayName("Ada").
		Build()

	user, err := resolver.Resolve(ctx, profile)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Equal(t, "Ada", user.DisplayName)
	require.NotNil(t, user.Email)
	assert.Equal(t, "a@x.com", *user.Email)
	assert.Nil(t, user.PasswordHash)
	require.Len(t, user.Links, 1)
	assert.Equal(t, domain.ProviderGoogle, user.Links[0].Provider)
	assert.Equal(t, "42", user.Links[0].ProviderID)
	assert.Equal(t, 1, repo.UserCount())
}

func TestIdentityResolver_RepeatedLoginIsIdempotent(t *testing.T) {
	repo := memory.NewUserRepository()
	resolver := service.NewIdentityResolver(repo)
	ctx := context.Background()

	profile := testutil.NewProfileBuilder(domain.ProviderGoogle).
		WithProviderID("42").
		WithEmail("a@x.com").
		WithDisplayName("Ada").
		Build()

	first, err := resolver.Resolve(ctx, profile)
	require.NoError(t, err)

	second, err := resolver.Resolve(ctx, profile)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.UserCount())
	// No profile update happened on the unchanged second call
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt)
}

func TestIdentityResolver_ProfileRefresh(t *testing.T) {
	repo := memory.NewUserRepository()
	resolver := service.NewIdentityResolver(repo)
	ctx := context.Background()

	builder := testutil.NewProfileBuilder(domain.ProviderDiscord).
		WithProviderID("d-1").
		WithDisplayName("old name")

	first, err := resolver.Resolve(ctx, builder.Build())
	require.NoError(t, err)

	updated, err := resolver.Resolve(ctx, builder.WithDisplayName("new name").WithAvatarURL("https://cdn.example/a.png").Build())
	require.NoError(t, err)

	assert.Equal(t, first.ID, updated.ID)
	assert.Equal(t, "new name", updated.DisplayName)
	require.NotNil(t, updated.AvatarURL)
	assert.Equal(t, "https://cdn.example/a.png", *updated.AvatarURL)
	assert.Equal(t, 1, repo.UserCount())
}

func TestIdentityResolver_LinksToExistingEmailAccount(t *testing.T) {
	repo := memory.NewUserRepository()
	resolver := service.NewIdentityResolver(repo)
	ctx := context.Background()

	existing, _ := testutil.NewUserBuilder().WithEmail("a@x.com").Build(t, repo)

	profile := testutil.NewProfileBuilder(domain.ProviderGoogle).
		WithProviderID("g-7").
		WithEmail("a@x.com").
		WithDisplayName("Ada G").
		Build()

	user, err := resolver.Resolve(ctx, profile)
	require.NoError(t, err)

	assert.Equal(t, existing.ID, user.ID)
	assert.Equal(t, "Ada G", user.DisplayName)
	require.NotNil(t, user.LinkFor(domain.ProviderGoogle))
	assert.Equal(t, "g-7", user.LinkFor(domain.ProviderGoogle).ProviderID)
	assert.Equal(t, 1, repo.UserCount())

	// The linked account still authenticates by its original email
	assert.True(t, user.HasPassword())
}

func TestIdentityResolver_EmailLookupIsNormalized(t *testing.T) {
	repo := memory.NewUserRepository()
	resolver := service.NewIdentityResolver(repo)
	ctx := context.Background()

	existing, _ := testutil.NewUserBuilder().WithEmail("a@x.com").Build(t, repo)

	profile := testutil.NewProfileBuilder(domain.ProviderFacebook).
		WithProviderID("f-1").
		WithEmail(" A@X.com ").
		Build()

	user, err := resolver.Resolve(ctx, profile)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, user.ID)
}

func TestIdentityResolver_AccountLinkConflict(t *testing.T) {
	repo := memory.NewUserRepository()
	resolver := service.NewIdentityResolver(repo)
	ctx := context.Background()

	// Account whose google identity is "g-1"
	_, err := resolver.Resolve(ctx, testutil.NewProfileBuilder(domain.ProviderGoogle).
		WithProviderID("g-1").
		WithEmail("a@x.com").
		Build())
	require.NoError(t, err)

	// A different google identity asserting the same email cannot steal
	// the account
	_, err = resolver.Resolve(ctx, testutil.NewProfileBuilder(domain.ProviderGoogle).
		WithProviderID("g-2").
		WithEmail("a@x.com").
		Build())
	assert.ErrorIs(t, err, domain.ErrAccountLinkConflict)
	assert.Equal(t, 1, repo.UserCount())
}

func TestIdentityResolver_DifferentProvidersStayDistinct(t *testing.T) {
	repo := memory.NewUserRepository()
	resolver := service.NewIdentityResolver(repo)
	ctx := context.Background()

	first, err := resolver.Resolve(ctx, testutil.NewProfileBuilder(domain.ProviderGoogle).
		WithProviderID("1").
		WithEmail("one@x.com").
		Build())
	require.NoError(t, err)

	second, err := resolver.Resolve(ctx, testutil.NewProfileBuilder(domain.ProviderDiscord).
		WithProviderID("1").
		WithEmail("two@x.com").
		Build())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, repo.UserCount())
}

func TestIdentityResolver_NoEmailProfileCreatesAccount(t *testing.T) {
	repo := memory.NewUserRepository()
	resolver := service.NewIdentityResolver(repo)
	ctx := context.Background()

	profile := testutil.NewProfileBuilder(domain.ProviderDiscord).
		WithProviderID("d-9").
		WithEmail("").
		Build()

	user, err := resolver.Resolve(ctx, profile)
	require.NoError(t, err)
	assert.Nil(t, user.Email)
	require.Len(t, user.Links, 1)
}

func TestIdentityResolver_ConcurrentFirstLogins(t *testing.T) {
	repo := memory.NewUserRepository()
	resolver := service.NewIdentityResolver(repo)
	ctx := context.Background()

	profile := testutil.NewProfileBuilder(domain.ProviderGoogle).
		WithProviderID("race-1").
		WithEmail("race@x.com").
		Build()

	const callers = 8
	results := make([]*domain.User, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = resolver.Resolve(ctx, profile)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		assert.Equal(t, results[0].ID, results[i].ID)
	}
	assert.Equal(t, 1, repo.UserCount())
}
