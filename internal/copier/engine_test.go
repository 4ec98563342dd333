package copier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kevinfinalboss/galleon/internal/events"
	"github.com/kevinfinalboss/galleon/internal/filter"
	"github.com/kevinfinalboss/galleon/internal/gallery"
	"github.com/kevinfinalboss/galleon/internal/gallery/gallerytest"
	"github.com/kevinfinalboss/galleon/internal/logger"
	"github.com/kevinfinalboss/galleon/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	sourceContext = types.GalleryContext{
		TenantID:       "11111111-1111-1111-1111-111111111111",
		SubscriptionID: "22222222-2222-2222-2222-222222222222",
		ResourceGroup:  "rg-images-src",
		GalleryName:    "gal_src",
	}
	targetContext = types.GalleryContext{
		TenantID:       "11111111-1111-1111-1111-111111111111",
		SubscriptionID: "33333333-3333-3333-3333-333333333333",
		ResourceGroup:  "rg-images-dst",
		GalleryName:    "gal_dst",
	}
	fixedTime = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
)

type fixture struct {
	catalog *gallerytest.Memory
	source  gallery.Gallery
	target  gallery.Gallery
}

func newFixture() *fixture {
	m := gallerytest.NewMemory()
	return &fixture{
		catalog: m,
		source:  m.AddGallery(sourceContext, "japaneast"),
		target:  m.AddGallery(targetContext, "japanwest"),
	}
}

func (f *fixture) engine(recorder events.Recorder, opts ...Option) *Engine {
	opts = append([]Option{WithClock(func() time.Time { return fixedTime })}, opts...)
	return NewEngine(f.catalog, f.catalog, logger.NewTest(), recorder, opts...)
}

func linuxDefinition(name string) types.ImageDefinition {
	return types.ImageDefinition{
		Name:             name,
		Location:         "japaneast",
		Identifier:       types.ImageIdentifier{Publisher: "contoso", Offer: name, SKU: "gen2"},
		OSType:           "Linux",
		OSState:          "Generalized",
		HyperVGeneration: "V2",
	}
}

func imageVersion(name string, regions ...types.TargetRegion) types.ImageVersion {
	v := types.ImageVersion{Name: name, Location: "japaneast"}
	if len(regions) > 0 {
		v.PublishingProfile = &types.PublishingProfile{TargetRegions: regions}
	}
	return v
}

func cmkRegion(name string) types.TargetRegion {
	return types.TargetRegion{
		Name:       name,
		Encryption: &types.RegionEncryption{OSDiskEncryptionSetID: "/subscriptions/x/diskEncryptionSets/des"},
	}
}

type outcome struct {
	Type       types.OperationType
	Definition string
	Version    string
	Result     types.OperationResult
}

func outcomes(summary *types.CopySummary) []outcome {
	out := make([]outcome, 0, len(summary.Operations))
	for _, op := range summary.Operations {
		out = append(out, outcome{op.Type, op.DefinitionName, op.VersionName, op.Result})
	}
	return out
}

func assertCounterIdentity(t *testing.T, summary *types.CopySummary) {
	t.Helper()
	counters := types.Aggregate(summary.Operations)
	assert.Equal(t, counters.CreatedImageDefinitions(), summary.CreatedImageDefinitions)
	assert.Equal(t, counters.CreatedImageVersions(), summary.CreatedImageVersions)
	assert.Equal(t, counters.SkippedImageVersions(), summary.SkippedImageVersions)
	assert.Equal(t, counters.FailedOperations(), summary.FailedOperations)

	var defs, versions int
	for _, op := range summary.Operations {
		if op.Type == types.OperationCreateImageDefinition {
			defs++
		} else {
			versions++
		}
	}
	assert.Equal(t, defs, counters.Definitions.Attempted())
	assert.Equal(t, versions, counters.Versions.Attempted())
}

func TestCopyAll_IncludeFilterSelectsDefinitions(t *testing.T) {
	for _, dryRun := range []bool{false, true} {
		f := newFixture()
		f.catalog.AddDefinition(f.source, linuxDefinition("ubuntu-2204"))
		f.catalog.AddDefinition(f.source, linuxDefinition("windows-2022"))

		criteria := &types.FilterCriteria{ImageIncludes: []string{"ubuntu"}, MatchMode: types.MatchModePrefix}
		summary, err := f.engine(nil).CopyAll(context.Background(), f.source, f.target, criteria, dryRun)
		require.NoError(t, err)

		assert.Equal(t, []outcome{
			{types.OperationCreateImageDefinition, "ubuntu-2204", "", types.ResultSuccess},
		}, outcomes(summary))
		assert.Equal(t, 1, summary.CreatedImageDefinitions)
		assert.Equal(t, dryRun, summary.IsDryRun)
		assertCounterIdentity(t, summary)
	}
}

func TestCopyAll_ExistingVersionSkipped(t *testing.T) {
	f := newFixture()
	f.catalog.AddDefinition(f.source, linuxDefinition("ubuntu-2204"), imageVersion("1.0.0"), imageVersion("1.0.1"))
	f.catalog.AddDefinition(f.target, linuxDefinition("ubuntu-2204"), imageVersion("1.0.0"))

	summary, err := f.engine(nil).CopyAll(context.Background(), f.source, f.target, nil, false)
	require.NoError(t, err)

	assert.Equal(t, []outcome{
		{types.OperationCreateImageDefinition, "ubuntu-2204", "", types.ResultSkipped},
		{types.OperationCreateImageVersion, "ubuntu-2204", "1.0.0", types.ResultSkipped},
		{types.OperationCreateImageVersion, "ubuntu-2204", "1.0.1", types.ResultSuccess},
	}, outcomes(summary))
	assert.Equal(t, types.SkipReasonDefinitionExists, summary.Operations[0].SkipReason)
	assert.Equal(t, types.SkipReasonVersionExists, summary.Operations[1].SkipReason)
	assert.Equal(t, 0, summary.CreatedImageDefinitions)
	assert.Equal(t, 1, summary.CreatedImageVersions)
	assert.Equal(t, 1, summary.SkippedImageVersions)
	assert.Equal(t, 0, f.catalog.DefinitionCreates)
	assert.Equal(t, 1, f.catalog.VersionCreates)
}

func TestCopyAll_CMKVersionAlwaysSkipped(t *testing.T) {
	for _, dryRun := range []bool{false, true} {
		f := newFixture()
		f.catalog.AddDefinition(f.source, linuxDefinition("ubuntu-2204"),
			imageVersion("1.0.0", types.TargetRegion{Name: "japaneast"}, cmkRegion("japanwest")),
			imageVersion("1.0.1", types.TargetRegion{Name: "japaneast"}),
		)
		recorder := events.NewMemoryRecorder()

		criteria := &types.FilterCriteria{
			ImageIncludes:   []string{"ubuntu"},
			VersionIncludes: []string{"1.0"},
			MatchMode:       types.MatchModePrefix,
		}
		summary, err := f.engine(recorder).CopyAll(context.Background(), f.source, f.target, criteria, dryRun)
		require.NoError(t, err)

		require.Len(t, summary.Operations, 3)
		vetoed := summary.Operations[1]
		assert.Equal(t, "1.0.0", vetoed.VersionName)
		assert.Equal(t, types.ResultSkipped, vetoed.Result)
		assert.Equal(t, types.SkipReasonCMKEncryption, vetoed.SkipReason)
		assert.Equal(t, types.ResultSuccess, summary.Operations[2].Result)

		skips := recorder.WithCode(events.SkipVersionRegionUnavailable)
		require.Len(t, skips, 1)
		assert.Equal(t, events.SkipReasonCMKEncryption, skips[0].Metadata[events.KeySkipReason])
		assert.Equal(t, "japanwest", skips[0].Metadata[events.KeyRegions])
		assert.Equal(t, vetoed.OperationID, skips[0].CorrelationID)
	}
}

func TestCopyAll_SecondRunIsIdempotent(t *testing.T) {
	f := newFixture()
	f.catalog.AddDefinition(f.source, linuxDefinition("ubuntu-2204"), imageVersion("1.0.0"), imageVersion("1.1.0"))
	f.catalog.AddDefinition(f.source, linuxDefinition("rhel-9"), imageVersion("9.4.0"))
	engine := f.engine(nil)

	first, err := engine.CopyAll(context.Background(), f.source, f.target, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 2, first.CreatedImageDefinitions)
	assert.Equal(t, 3, first.CreatedImageVersions)

	second, err := engine.CopyAll(context.Background(), f.source, f.target, nil, false)
	require.NoError(t, err)

	assert.Empty(t, second.OperationsWith(types.ResultSuccess))
	assert.Len(t, second.OperationsWith(types.ResultSkipped), len(first.Operations))
	for i, op := range second.Operations {
		assert.Equal(t, first.Operations[i].Target(), op.Target())
	}
	assertCounterIdentity(t, second)
}

func TestCopyAll_DryRunMatchesRealRun(t *testing.T) {
	build := func() *fixture {
		f := newFixture()
		f.catalog.AddDefinition(f.source, linuxDefinition("ubuntu-2204"), imageVersion("1.0.0"), imageVersion("1.0.1"))
		f.catalog.AddDefinition(f.source, linuxDefinition("rhel-9"), imageVersion("9.4.0", cmkRegion("eastus")))
		f.catalog.AddDefinition(f.source, linuxDefinition("debian-12"), imageVersion("12.0.0"))
		f.catalog.AddDefinition(f.target, linuxDefinition("ubuntu-2204"), imageVersion("1.0.0"))
		return f
	}

	f := build()
	plan, err := f.engine(nil).CopyAll(context.Background(), f.source, f.target, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 0, f.catalog.Creates(), "a dry run never calls create")

	result, err := f.engine(nil).CopyAll(context.Background(), f.source, f.target, nil, false)
	require.NoError(t, err)

	assert.Equal(t, outcomes(result), outcomes(plan))
	assert.Equal(t, len(result.OperationsWith(types.ResultSuccess)), len(plan.OperationsWith(types.ResultSuccess)))
	assert.Equal(t, f.catalog.Creates(), len(result.OperationsWith(types.ResultSuccess)))
}

func TestCopyAll_VersionFailureDoesNotStopSiblings(t *testing.T) {
	f := newFixture()
	f.catalog.AddDefinition(f.source, linuxDefinition("ubuntu-2204"),
		imageVersion("1.0.0"), imageVersion("1.0.1"), imageVersion("1.0.2"))
	f.catalog.AddDefinition(f.source, linuxDefinition("rhel-9"), imageVersion("9.4.0"))
	f.catalog.VersionCreateErrors["ubuntu-2204/1.0.1"] = &gallery.ProviderError{
		StatusCode: 409,
		Code:       "OperationNotAllowed",
		Message:    "Source image is in a different region",
	}

	summary, err := f.engine(nil).CopyAll(context.Background(), f.source, f.target, nil, false)
	require.NoError(t, err)

	assert.Equal(t, []outcome{
		{types.OperationCreateImageDefinition, "ubuntu-2204", "", types.ResultSuccess},
		{types.OperationCreateImageVersion, "ubuntu-2204", "1.0.0", types.ResultSuccess},
		{types.OperationCreateImageVersion, "ubuntu-2204", "1.0.1", types.ResultFailed},
		{types.OperationCreateImageVersion, "ubuntu-2204", "1.0.2", types.ResultSuccess},
		{types.OperationCreateImageDefinition, "rhel-9", "", types.ResultSuccess},
		{types.OperationCreateImageVersion, "rhel-9", "9.4.0", types.ResultSuccess},
	}, outcomes(summary))

	failed := summary.Operations[2]
	assert.Equal(t, "OperationNotAllowed", failed.ErrorCode)
	assert.Equal(t, "Status: 409, ErrorCode: OperationNotAllowed, Message: Source image is in a different region", failed.ErrorMessage)
	assert.Equal(t, 1, summary.FailedOperations)
	assert.Equal(t, 1, summary.ExitCode())
}

func TestCopyAll_DefinitionFailureSkipsItsVersions(t *testing.T) {
	f := newFixture()
	f.catalog.AddDefinition(f.source, linuxDefinition("ubuntu-2204"), imageVersion("1.0.0"), imageVersion("1.0.1"))
	f.catalog.AddDefinition(f.source, linuxDefinition("rhel-9"), imageVersion("9.4.0"))
	f.catalog.DefinitionCreateErrors["ubuntu-2204"] = errors.New("connection reset by peer")
	recorder := events.NewMemoryRecorder()

	summary, err := f.engine(recorder).CopyAll(context.Background(), f.source, f.target, nil, false)
	require.NoError(t, err)

	assert.Equal(t, []outcome{
		{types.OperationCreateImageDefinition, "ubuntu-2204", "", types.ResultFailed},
		{types.OperationCreateImageDefinition, "rhel-9", "", types.ResultSuccess},
		{types.OperationCreateImageVersion, "rhel-9", "9.4.0", types.ResultSuccess},
	}, outcomes(summary))
	assert.Equal(t, "connection reset by peer", summary.Operations[0].ErrorMessage)
	assert.Equal(t, ErrorCodeDefinitionFailed, summary.Operations[0].ErrorCode)

	failures := recorder.WithCode(events.CreateImageDefFailed)
	require.Len(t, failures, 1)
	assert.Equal(t, ErrorCodeDefinitionFailed, failures[0].Metadata[events.KeyErrorCode])
	assertCounterIdentity(t, summary)
}

func TestCopyAll_VersionExistenceCheckFailureIsRecorded(t *testing.T) {
	f := newFixture()
	f.catalog.AddDefinition(f.source, linuxDefinition("ubuntu-2204"), imageVersion("1.0.0"), imageVersion("1.0.1"))
	f.catalog.AddDefinition(f.target, linuxDefinition("ubuntu-2204"))
	f.catalog.VersionExistsErrors["ubuntu-2204/1.0.0"] = &gallery.ProviderError{StatusCode: 429, Code: "TooManyRequests", Message: "throttled"}

	summary, err := f.engine(nil).CopyAll(context.Background(), f.source, f.target, nil, false)
	require.NoError(t, err)

	require.Len(t, summary.Operations, 3)
	assert.Equal(t, types.ResultFailed, summary.Operations[1].Result)
	assert.Equal(t, "TooManyRequests", summary.Operations[1].ErrorCode)
	assert.Equal(t, types.ResultSuccess, summary.Operations[2].Result)
}

func TestCopyAll_EnumerationFailureIsFatal(t *testing.T) {
	f := newFixture()
	f.catalog.AddDefinition(f.source, linuxDefinition("ubuntu-2204"))
	f.catalog.EnumerateError = &gallery.ProviderError{StatusCode: 403, Code: "AuthorizationFailed", Message: "denied"}
	recorder := events.NewMemoryRecorder()

	summary, err := f.engine(recorder).CopyAll(context.Background(), f.source, f.target, nil, false)

	assert.Nil(t, summary)
	require.Error(t, err)
	pe, ok := gallery.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, "AuthorizationFailed", pe.Code)

	failed := recorder.WithCode(events.QueryGalleryFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, "403", failed[0].Metadata[events.KeyHTTPStatus])
	assert.Empty(t, recorder.WithCode(events.CopyComplete))
}

func TestCopyAll_InvalidCriteriaFailsFast(t *testing.T) {
	f := newFixture()
	f.catalog.AddDefinition(f.source, linuxDefinition("ubuntu-2204"))
	recorder := events.NewMemoryRecorder()

	summary, err := f.engine(recorder).CopyAll(context.Background(), f.source, f.target,
		&types.FilterCriteria{MatchMode: "regex"}, false)

	assert.Nil(t, summary)
	assert.ErrorIs(t, err, filter.ErrInvalidArgument)
	assert.Empty(t, recorder.Events())
	assert.Equal(t, 0, f.catalog.Creates())
}

func TestRun_ValidatesCriteria(t *testing.T) {
	f := newFixture()
	f.catalog.AddDefinition(f.source, linuxDefinition("ubuntu-2204"), imageVersion("1.0.0"))
	recorder := events.NewMemoryRecorder()

	summary, err := f.engine(recorder).Run(context.Background(), NewLiveExecutor(f.catalog), f.source, f.target,
		&types.FilterCriteria{MatchMode: "regex"})

	assert.Nil(t, summary)
	assert.ErrorIs(t, err, filter.ErrInvalidArgument)
	assert.Empty(t, recorder.Events())
	assert.Equal(t, 0, f.catalog.Creates())
}

func TestRun_NilCriteriaAdmitsEverything(t *testing.T) {
	f := newFixture()
	f.catalog.AddDefinition(f.source, linuxDefinition("ubuntu-2204"), imageVersion("1.0.0"))

	summary, err := f.engine(nil).Run(context.Background(), NewLiveExecutor(f.catalog), f.source, f.target, nil)
	require.NoError(t, err)

	assert.Equal(t, []outcome{
		{types.OperationCreateImageDefinition, "ubuntu-2204", "", types.ResultSuccess},
		{types.OperationCreateImageVersion, "ubuntu-2204", "1.0.0", types.ResultSuccess},
	}, outcomes(summary))
}

func TestCopyAll_UnnamedItemsFailFast(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
	}{
		{
			name: "definition",
			setup: func(f *fixture) {
				f.catalog.AddDefinition(f.source, linuxDefinition("ubuntu-2204"), imageVersion("1.0.0"))
				f.catalog.AddDefinition(f.source, linuxDefinition(""))
			},
		},
		{
			name: "version",
			setup: func(f *fixture) {
				f.catalog.AddDefinition(f.source, linuxDefinition("ubuntu-2204"), imageVersion("1.0.0"), imageVersion(""))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, concurrency := range []int{1, 4} {
				f := newFixture()
				tt.setup(f)
				recorder := events.NewMemoryRecorder()

				summary, err := f.engine(recorder, WithConcurrency(concurrency)).
					CopyAll(context.Background(), f.source, f.target, nil, false)

				assert.Nil(t, summary)
				assert.ErrorIs(t, err, filter.ErrInvalidArgument)
				assert.Equal(t, 0, f.catalog.Creates(), "nothing is created before the names are checked")
				assert.Empty(t, recorder.WithCode(events.CopyComplete))
			}
		})
	}
}

func TestCopyAll_DryRunChecksVersionsOfExistingDefinition(t *testing.T) {
	f := newFixture()
	f.catalog.AddDefinition(f.source, linuxDefinition("ubuntu-2204"), imageVersion("1.0.0"), imageVersion("1.0.1"))
	f.catalog.AddDefinition(f.target, linuxDefinition("ubuntu-2204"), imageVersion("1.0.0"))
	recorder := events.NewMemoryRecorder()

	summary, err := f.engine(recorder).CopyAll(context.Background(), f.source, f.target, nil, true)
	require.NoError(t, err)

	assert.Equal(t, []outcome{
		{types.OperationCreateImageDefinition, "ubuntu-2204", "", types.ResultSkipped},
		{types.OperationCreateImageVersion, "ubuntu-2204", "1.0.0", types.ResultSkipped},
		{types.OperationCreateImageVersion, "ubuntu-2204", "1.0.1", types.ResultSuccess},
	}, outcomes(summary))

	for _, e := range recorder.Events() {
		assert.Equal(t, events.ModeDryRun, e.Metadata[events.KeyMode], e.Code)
	}
	assert.Len(t, recorder.WithCode(events.DryRunStart), 1)
	assert.Len(t, recorder.WithCode(events.DryRunComplete), 1)
	assert.Empty(t, recorder.WithCode(events.CopyStart))
}

func TestCopyAll_FilteredItemsProduceNoOperations(t *testing.T) {
	f := newFixture()
	f.catalog.AddDefinition(f.source, linuxDefinition("ubuntu-2204"),
		imageVersion("1.0.0"), imageVersion("2.0.0-preview"), imageVersion("2.0.0"))
	f.catalog.AddDefinition(f.source, linuxDefinition("ubuntu-2204-test"), imageVersion("1.0.0"))
	recorder := events.NewMemoryRecorder()

	criteria := &types.FilterCriteria{
		ImageExcludes:   []string{"test"},
		VersionIncludes: []string{"2.0"},
		VersionExcludes: []string{"preview"},
		MatchMode:       types.MatchModeContains,
	}
	summary, err := f.engine(recorder).CopyAll(context.Background(), f.source, f.target, criteria, false)
	require.NoError(t, err)

	assert.Equal(t, []outcome{
		{types.OperationCreateImageDefinition, "ubuntu-2204", "", types.ResultSuccess},
		{types.OperationCreateImageVersion, "ubuntu-2204", "2.0.0", types.ResultSuccess},
	}, outcomes(summary))
	assert.Len(t, recorder.WithCode(events.FilteredOutImage), 1)
	assert.Len(t, recorder.WithCode(events.FilteredOutVersion), 2)
	assertCounterIdentity(t, summary)
}

func TestCopyAll_OperationIDsAreUnique(t *testing.T) {
	f := newFixture()
	f.catalog.AddDefinition(f.source, linuxDefinition("ubuntu-2204"), imageVersion("1.0.0"), imageVersion("1.0.1"))
	f.catalog.AddDefinition(f.source, linuxDefinition("rhel-9"), imageVersion("9.4.0"))

	summary, err := f.engine(nil, WithConcurrency(4)).CopyAll(context.Background(), f.source, f.target, nil, false)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, op := range summary.Operations {
		assert.Regexp(t, `^OP-[0-9a-f]{32}$`, op.OperationID)
		assert.False(t, seen[op.OperationID], "duplicate id %s", op.OperationID)
		seen[op.OperationID] = true
	}
}

type panickingRecorder struct{}

func (panickingRecorder) Record(events.Event) { panic("sink unavailable") }

func TestCopyAll_RecorderCannotChangeOutcome(t *testing.T) {
	build := func() *fixture {
		f := newFixture()
		f.catalog.AddDefinition(f.source, linuxDefinition("ubuntu-2204"), imageVersion("1.0.0"))
		f.catalog.VersionCreateErrors["ubuntu-2204/1.0.0"] = errors.New("quota exceeded")
		return f
	}

	quiet := build()
	expected, err := quiet.engine(nil).CopyAll(context.Background(), quiet.source, quiet.target, nil, false)
	require.NoError(t, err)

	noisy := build()
	var actual *types.CopySummary
	require.NotPanics(t, func() {
		actual, err = noisy.engine(panickingRecorder{}).CopyAll(context.Background(), noisy.source, noisy.target, nil, false)
	})
	require.NoError(t, err)

	assert.Equal(t, outcomes(expected), outcomes(actual))
	assert.Equal(t, expected.Counters(), actual.Counters())
}

func TestCopyAll_ConcurrencyPreservesSourceOrder(t *testing.T) {
	build := func() *fixture {
		f := newFixture()
		for _, name := range []string{"a-image", "b-image", "c-image", "d-image", "e-image"} {
			f.catalog.AddDefinition(f.source, linuxDefinition(name), imageVersion("1.0.0"), imageVersion("1.0.1"))
		}
		f.catalog.AddDefinition(f.target, linuxDefinition("c-image"), imageVersion("1.0.0"))
		f.catalog.VersionCreateErrors["d-image/1.0.1"] = errors.New("boom")
		return f
	}

	sequential := build()
	expected, err := sequential.engine(nil).CopyAll(context.Background(), sequential.source, sequential.target, nil, false)
	require.NoError(t, err)

	parallel := build()
	actual, err := parallel.engine(nil, WithConcurrency(3)).CopyAll(context.Background(), parallel.source, parallel.target, nil, false)
	require.NoError(t, err)

	assert.Equal(t, outcomes(expected), outcomes(actual))
	assertCounterIdentity(t, actual)
}

func TestCopyAll_VersionPayloadUsesSourceProfile(t *testing.T) {
	f := newFixture()
	replicas := int32(3)
	exclude := true
	regional := int32(2)
	source := types.ImageVersion{
		Name: "1.0.0",
		PublishingProfile: &types.PublishingProfile{
			ReplicaCount:      &replicas,
			ExcludeFromLatest: &exclude,
			TargetRegions: []types.TargetRegion{
				{Name: "japaneast", RegionalReplicaCount: &regional, StorageAccountType: "Standard_ZRS"},
			},
		},
	}
	f.catalog.AddDefinition(f.source, linuxDefinition("ubuntu-2204"), source, imageVersion("1.0.1"))

	_, err := f.engine(nil).CopyAll(context.Background(), f.source, f.target, nil, false)
	require.NoError(t, err)

	require.Len(t, f.catalog.CreatedVersions, 2)
	first := f.catalog.CreatedVersions[0]
	assert.Equal(t, int32(3), first.ReplicaCount)
	assert.True(t, first.ExcludeFromLatest)
	assert.Equal(t, "japanwest", first.Location)
	assert.Equal(t, f.source.ID+"/images/ubuntu-2204/versions/1.0.0", first.SourceVersionID)
	assert.Equal(t, []types.TargetRegion{{Name: "japaneast", RegionalReplicaCount: &regional, StorageAccountType: "Standard_ZRS"}}, first.TargetRegions)

	second := f.catalog.CreatedVersions[1]
	assert.Equal(t, int32(1), second.ReplicaCount)
	assert.Equal(t, []types.TargetRegion{{Name: "japanwest"}}, second.TargetRegions)
}

type mockQuery struct {
	mock.Mock
}

func (m *mockQuery) GetGallery(ctx context.Context, gc types.GalleryContext) (gallery.Gallery, error) {
	args := m.Called(ctx, gc)
	return args.Get(0).(gallery.Gallery), args.Error(1)
}

func (m *mockQuery) ListGalleries(ctx context.Context, subscriptionID, resourceGroup string) ([]gallery.Gallery, error) {
	args := m.Called(ctx, subscriptionID, resourceGroup)
	return args.Get(0).([]gallery.Gallery), args.Error(1)
}

func (m *mockQuery) EnumerateDefinitions(ctx context.Context, g gallery.Gallery) ([]types.ImageDefinition, error) {
	args := m.Called(ctx, g)
	return args.Get(0).([]types.ImageDefinition), args.Error(1)
}

func (m *mockQuery) EnumerateVersions(ctx context.Context, g gallery.Gallery, definition string) ([]types.ImageVersion, error) {
	args := m.Called(ctx, g, definition)
	return args.Get(0).([]types.ImageVersion), args.Error(1)
}

func (m *mockQuery) EnumerateAllWithVersions(ctx context.Context, g gallery.Gallery) ([]gallery.DefinitionEntry, error) {
	args := m.Called(ctx, g)
	return args.Get(0).([]gallery.DefinitionEntry), args.Error(1)
}

func (m *mockQuery) GetDefinition(ctx context.Context, g gallery.Gallery, name string) (types.ImageDefinition, error) {
	args := m.Called(ctx, g, name)
	return args.Get(0).(types.ImageDefinition), args.Error(1)
}

func (m *mockQuery) DefinitionExists(ctx context.Context, g gallery.Gallery, name string) (bool, error) {
	args := m.Called(ctx, g, name)
	return args.Bool(0), args.Error(1)
}

func (m *mockQuery) VersionExists(ctx context.Context, g gallery.Gallery, definition, version string) (bool, error) {
	args := m.Called(ctx, g, definition, version)
	return args.Bool(0), args.Error(1)
}

func TestCopyAll_DryRunSkipsVersionChecksForPlannedDefinition(t *testing.T) {
	ctx := context.Background()
	source := gallery.Gallery{Context: sourceContext, ID: sourceContext.ResourceID(), Location: "japaneast"}
	target := gallery.Gallery{Context: targetContext, ID: targetContext.ResourceID(), Location: "japanwest"}

	query := &mockQuery{}
	query.On("EnumerateAllWithVersions", ctx, source).Return([]gallery.DefinitionEntry{
		{Definition: linuxDefinition("ubuntu-2204"), Versions: []types.ImageVersion{imageVersion("1.0.0"), imageVersion("1.0.1")}},
	}, nil)
	query.On("DefinitionExists", ctx, target, "ubuntu-2204").Return(false, nil)

	engine := NewEngine(query, nil, logger.NewTest(), nil)
	summary, err := engine.CopyAll(ctx, source, target, nil, true)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.CreatedImageDefinitions)
	assert.Equal(t, 2, summary.CreatedImageVersions)
	query.AssertExpectations(t)
	query.AssertNotCalled(t, "VersionExists", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCopyAll_AttributeMismatchOnlyWarns(t *testing.T) {
	ctx := context.Background()
	source := gallery.Gallery{Context: sourceContext, ID: sourceContext.ResourceID(), Location: "japaneast"}
	target := gallery.Gallery{Context: targetContext, ID: targetContext.ResourceID(), Location: "japanwest"}

	existing := linuxDefinition("ubuntu-2204")
	existing.OSState = "Specialized"

	query := &mockQuery{}
	query.On("EnumerateAllWithVersions", ctx, source).Return([]gallery.DefinitionEntry{
		{Definition: linuxDefinition("ubuntu-2204"), Versions: []types.ImageVersion{imageVersion("1.0.0")}},
	}, nil)
	query.On("DefinitionExists", ctx, target, "ubuntu-2204").Return(true, nil)
	query.On("GetDefinition", ctx, target, "ubuntu-2204").Return(existing, nil)
	query.On("VersionExists", ctx, target, "ubuntu-2204", "1.0.0").Return(false, nil)

	engine := NewEngine(query, nil, logger.NewTest(), nil)
	summary, err := engine.CopyAll(ctx, source, target, nil, true)
	require.NoError(t, err)

	assert.Equal(t, []outcome{
		{types.OperationCreateImageDefinition, "ubuntu-2204", "", types.ResultSkipped},
		{types.OperationCreateImageVersion, "ubuntu-2204", "1.0.0", types.ResultSuccess},
	}, outcomes(summary))
	query.AssertExpectations(t)
}
