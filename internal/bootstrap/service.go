package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"go.uber.org/zap"

	"github.com/temirov/labkit/internal/reagents"
)

const (
	workspacePermissions             = 0o755
	workspaceNotDirectoryTemplate    = "workspace %s exists but is not a directory"
	inspectWorkspaceErrorTemplate    = "unable to inspect workspace %s: %w"
	createWorkspaceErrorTemplate     = "unable to create workspace %s: %w"
	activateStoreErrorTemplate       = "unable to open reagent store %s: %w"
	installManifestErrorTemplate     = "unable to install reagent manifest %s: %w"
	closeStoreErrorTemplate          = "unable to close reagent store %s: %w"
	workspaceExistsMessageConstant   = "Workspace exists; skipping creation"
	workspaceCreatedMessageConstant  = "Created workspace"
	manifestInstalledMessageConstant = "Installed reagent manifest"
	launchingMessageConstant         = "Launching labkit server"
	workspaceLogFieldConstant        = "workspace"
	storeLogFieldConstant            = "store"
	manifestLogFieldConstant         = "manifest"
	addedLogFieldConstant            = "added"
	skippedLogFieldConstant          = "skipped"
)

// ErrWorkspaceNotDirectory indicates that the workspace path names a regular file.
var ErrWorkspaceNotDirectory = errors.New("workspace is not a directory")

// Launcher starts the application over the prepared reagent store.
type Launcher interface {
	Launch(executionContext context.Context, storeOpener reagents.StoreOpener) error
}

// StoreOpenFunc opens the reagent store at path.
type StoreOpenFunc func(executionContext context.Context, backend reagents.Backend, path string) (reagents.Store, error)

// ManifestLoader reads a reagent manifest from path.
type ManifestLoader func(path string) (reagents.Manifest, error)

// Dependencies wires the service to its collaborators. Nil members fall back to the defaults.
type Dependencies struct {
	Logger       *zap.Logger
	FileSystem   FileSystem
	OpenStore    StoreOpenFunc
	LoadManifest ManifestLoader
	Launcher     Launcher
}

// Options describe one bootstrap run.
type Options struct {
	Workspace string
	Manifest  string
	Backend   reagents.Backend
	Launch    bool
}

// Result reports what Prepare did.
type Result struct {
	WorkspaceCreated bool
	StorePath        string
	Imported         reagents.ImportSummary
}

// Service prepares the workspace and launches the application.
type Service struct {
	logger       *zap.Logger
	fileSystem   FileSystem
	openStore    StoreOpenFunc
	loadManifest ManifestLoader
	launcher     Launcher
}

// NewService constructs a Service.
func NewService(dependencies Dependencies) *Service {
	service := &Service{
		logger:       dependencies.Logger,
		fileSystem:   dependencies.FileSystem,
		openStore:    dependencies.OpenStore,
		loadManifest: dependencies.LoadManifest,
		launcher:     dependencies.Launcher,
	}
	if service.logger == nil {
		service.logger = zap.NewNop()
	}
	if service.fileSystem == nil {
		service.fileSystem = OSFileSystem{}
	}
	if service.openStore == nil {
		service.openStore = reagents.OpenStore
	}
	if service.loadManifest == nil {
		service.loadManifest = reagents.LoadManifest
	}
	return service
}

// Prepare creates the workspace when absent, opens its reagent store, and imports the manifest.
// The import is attempted whenever the store opens, whatever the creation outcome.
// Creation and installation failures are returned together.
func (service *Service) Prepare(executionContext context.Context, options Options) (Result, error) {
	configuration := CommandConfiguration{Workspace: options.Workspace, Manifest: options.Manifest}.Sanitize()
	backend := options.Backend
	if len(backend) == 0 {
		backend = reagents.BackendJSON
	}
	result := Result{StorePath: reagents.WorkspaceStorePath(configuration.Workspace, backend)}

	created, creationError := service.ensureWorkspace(configuration.Workspace)
	result.WorkspaceCreated = created

	store, activationError := service.openStore(executionContext, backend, result.StorePath)
	if activationError != nil {
		return result, errors.Join(creationError, fmt.Errorf(activateStoreErrorTemplate, result.StorePath, activationError))
	}

	imported, installError := service.install(executionContext, store, configuration.Manifest)
	result.Imported = imported

	var closeError error
	if storeCloseError := store.Close(); storeCloseError != nil {
		closeError = fmt.Errorf(closeStoreErrorTemplate, result.StorePath, storeCloseError)
	}
	return result, errors.Join(creationError, installError, closeError)
}

// Run prepares the workspace and, when every step succeeded and launching is requested,
// reports the result to onReady and launches the application.
func (service *Service) Run(executionContext context.Context, options Options, onReady func(Result) error) (Result, error) {
	result, prepareError := service.Prepare(executionContext, options)
	if prepareError != nil {
		return result, prepareError
	}
	if onReady != nil {
		if readyError := onReady(result); readyError != nil {
			return result, readyError
		}
	}
	if !options.Launch || service.launcher == nil {
		return result, nil
	}

	backend := options.Backend
	if len(backend) == 0 {
		backend = reagents.BackendJSON
	}
	storePath := result.StorePath
	service.logger.Info(launchingMessageConstant, zap.String(storeLogFieldConstant, storePath))
	return result, service.launcher.Launch(executionContext, func(openContext context.Context) (reagents.Store, error) {
		return service.openStore(openContext, backend, storePath)
	})
}

func (service *Service) ensureWorkspace(workspace string) (bool, error) {
	workspaceInfo, statError := service.fileSystem.Stat(workspace)
	switch {
	case statError == nil:
		if !workspaceInfo.IsDir() {
			return false, fmt.Errorf("%w: "+workspaceNotDirectoryTemplate, ErrWorkspaceNotDirectory, workspace)
		}
		service.logger.Info(workspaceExistsMessageConstant, zap.String(workspaceLogFieldConstant, workspace))
		return false, nil
	case errors.Is(statError, fs.ErrNotExist):
		if creationError := service.fileSystem.MkdirAll(workspace, workspacePermissions); creationError != nil {
			return false, fmt.Errorf(createWorkspaceErrorTemplate, workspace, creationError)
		}
		service.logger.Info(workspaceCreatedMessageConstant, zap.String(workspaceLogFieldConstant, workspace))
		return true, nil
	default:
		return false, fmt.Errorf(inspectWorkspaceErrorTemplate, workspace, statError)
	}
}

func (service *Service) install(executionContext context.Context, store reagents.Store, manifestPath string) (reagents.ImportSummary, error) {
	manifest, loadError := service.loadManifest(manifestPath)
	if loadError != nil {
		return reagents.ImportSummary{}, fmt.Errorf(installManifestErrorTemplate, manifestPath, loadError)
	}
	summary, importError := reagents.NewService(store, service.logger).Import(executionContext, manifest)
	if importError != nil {
		return summary, fmt.Errorf(installManifestErrorTemplate, manifestPath, importError)
	}
	service.logger.Info(
		manifestInstalledMessageConstant,
		zap.String(manifestLogFieldConstant, manifestPath),
		zap.Int(addedLogFieldConstant, summary.Added),
		zap.Int(skippedLogFieldConstant, summary.Skipped),
	)
	return summary, nil
}
