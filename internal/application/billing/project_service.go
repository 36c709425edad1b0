package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tiller/backend/internal/domain/billing"
	"github.com/tiller/backend/internal/domain/catalog"
	"github.com/tiller/backend/internal/domain/identity"
	"github.com/tiller/backend/internal/domain/partner"
	"github.com/tiller/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ProjectService handles project operations
type ProjectService struct {
	projectRepo    billing.ProjectRepository
	clientRepo     partner.ClientRepository
	departmentRepo identity.DepartmentRepository
	categoryRepo   catalog.CategoryRepository
	fileRepo       billing.ProjectFileRepository
	txScope        TransactionScope
	storage        ObjectStorage
	hooks          *writeHooks
	logger         *zap.Logger
	now            func() time.Time
}

// NewProjectService creates a new ProjectService
func NewProjectService(
	projectRepo billing.ProjectRepository,
	clientRepo partner.ClientRepository,
	departmentRepo identity.DepartmentRepository,
	categoryRepo catalog.CategoryRepository,
	fileRepo billing.ProjectFileRepository,
	txScope TransactionScope,
	logger *zap.Logger,
) *ProjectService {
	return &ProjectService{
		projectRepo:    projectRepo,
		clientRepo:     clientRepo,
		departmentRepo: departmentRepo,
		categoryRepo:   categoryRepo,
		fileRepo:       fileRepo,
		txScope:        txScope,
		hooks:          &writeHooks{logger: logger},
		logger:         logger,
		now:            time.Now,
	}
}

// SetEventPublisher sets the publisher for billing events
func (s *ProjectService) SetEventPublisher(publisher shared.EventPublisher) {
	s.hooks.publisher = publisher
}

// SetDashboardCache sets the cache invalidated by project writes
func (s *ProjectService) SetDashboardCache(cache DashboardCache) {
	s.hooks.cache = cache
}

// SetObjectStorage sets the storage whose files are removed with a project
func (s *ProjectService) SetObjectStorage(storage ObjectStorage) {
	s.storage = storage
}

func (s *ProjectService) resolver() *RefResolver {
	return NewRefResolver(s.clientRepo, s.departmentRepo, s.categoryRepo)
}

// List returns projects matching the filter. Filtering on the effective
// status needs the bills of every candidate, so it is applied in memory
// before paging.
func (s *ProjectService) List(ctx context.Context, f ProjectListFilter) ([]ProjectResponse, int64, error) {
	filter := billing.ProjectFilter{
		DepartmentID: f.DepartmentID.Ptr(),
		CategoryID:   f.CategoryID.Ptr(),
		ClientID:     f.ClientID.Ptr(),
		ProjectID:    f.ProjectID.Ptr(),
		Year:         f.Year,
	}
	filter.Search = f.Search
	filter.OrderBy = f.OrderBy
	filter.OrderDir = f.OrderDir

	now := s.now()
	var projects []billing.Project
	var total int64

	if f.Status != "" && f.Status != "all" {
		all, err := s.projectRepo.FindAll(ctx, filter)
		if err != nil {
			return nil, 0, err
		}
		want := billing.ProjectStatus(f.Status)
		matched := make([]billing.Project, 0, len(all))
		for i := range all {
			if all[i].EffectiveStatus(now) == want {
				matched = append(matched, all[i])
			}
		}
		total = int64(len(matched))
		projects = pageOf(matched, f.Page, f.PageSize)
	} else {
		filter.Page = f.Page
		filter.PageSize = f.PageSize
		var err error
		if projects, err = s.projectRepo.FindAll(ctx, filter); err != nil {
			return nil, 0, err
		}
		if total, err = s.projectRepo.Count(ctx, filter); err != nil {
			return nil, 0, err
		}
	}

	resolver := s.resolver()
	responses := make([]ProjectResponse, len(projects))
	for i := range projects {
		refs, err := resolver.Resolve(ctx, &projects[i])
		if err != nil {
			return nil, 0, err
		}
		responses[i] = ToProjectResponse(&projects[i], refs, now)
	}
	return responses, total, nil
}

func pageOf[T any](items []T, page, pageSize int) []T {
	if page <= 0 || pageSize <= 0 {
		return items
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// GetByID returns a project with its bills
func (s *ProjectService) GetByID(ctx context.Context, id uuid.UUID) (*ProjectResponse, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, project)
}

func (s *ProjectService) respond(ctx context.Context, project *billing.Project) (*ProjectResponse, error) {
	refs, err := s.resolver().Resolve(ctx, project)
	if err != nil {
		return nil, err
	}
	resp := ToProjectResponse(project, refs, s.now())
	return &resp, nil
}

// Create opens a project with its milestones. A new client given inline is
// created in the same transaction.
func (s *ProjectService) Create(ctx context.Context, req CreateProjectRequest) (*ProjectResponse, error) {
	if err := s.checkDepartment(ctx, req.DepartmentID); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}
	if req.ClientID == nil && req.NewClient == nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Either clientId or newClient is required")
	}
	if req.ClientID != nil {
		if err := s.checkClient(ctx, *req.ClientID); err != nil {
			return nil, err
		}
	}

	drafts := make([]billing.BillDraft, len(req.Bills))
	for i, b := range req.Bills {
		drafts[i] = b.toDraft()
	}
	policy := billing.StrictAllocation()
	policy.Bypass = req.BypassAllocationCheck

	var project *billing.Project
	var client *partner.Client
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		clientID := uuid.Nil
		if req.ClientID != nil {
			clientID = *req.ClientID
		} else {
			var err error
			client, err = partner.NewClient(partner.ClientDetails{
				Name:          req.NewClient.Name,
				ContactPerson: req.NewClient.ContactPerson,
				ContactEmail:  req.NewClient.Email,
				ContactPhone:  req.NewClient.Phone,
				Address:       req.NewClient.Address,
			})
			if err != nil {
				return err
			}
			if err := repos.ClientRepo().Save(ctx, client); err != nil {
				return err
			}
			clientID = client.ID
		}

		var err error
		project, err = billing.OpenProject(billing.ProjectInput{
			Name:         req.ProjectName,
			ClientID:     clientID,
			DepartmentID: req.DepartmentID,
			CategoryID:   req.CategoryID,
			StartDate:    req.StartDate.Ptr(),
			EndDate:      req.EndDate.Ptr(),
			TotalValue:   req.TotalProjectValue,
			Type:         billing.ProjectType(req.ProjectType),
			Status:       billing.ProjectStatus(req.Status),
		}, drafts, policy)
		if err != nil {
			return err
		}
		if req.PG != nil {
			if err := project.AssignGuarantee(req.PG.toInput()); err != nil {
				return err
			}
		}
		return repos.ProjectRepo().Save(ctx, project)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Project created",
		zap.String("project_id", project.ID.String()),
		zap.Int("bills", len(project.Bills)))

	if client != nil {
		s.hooks.committed(ctx, client, project)
	} else {
		s.hooks.committed(ctx, project)
	}
	return s.respond(ctx, project)
}

// Update applies a partial update to a project
func (s *ProjectService) Update(ctx context.Context, id uuid.UUID, req UpdateProjectRequest) (*ProjectResponse, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ClientID != nil {
		if err := s.checkClient(ctx, *req.ClientID); err != nil {
			return nil, err
		}
	}
	if req.DepartmentID != nil {
		if err := s.checkDepartment(ctx, *req.DepartmentID); err != nil {
			return nil, err
		}
	}
	if req.CategoryID != nil {
		if err := s.checkCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
	}

	patch := billing.ProjectPatch{
		Name:         req.ProjectName,
		ClientID:     req.ClientID,
		DepartmentID: req.DepartmentID,
		CategoryID:   req.CategoryID,
		StartDate:    req.StartDate.Ptr(),
		EndDate:      req.EndDate.Ptr(),
		TotalValue:   req.TotalProjectValue,
	}
	if req.ProjectType != nil {
		t := billing.ProjectType(*req.ProjectType)
		patch.Type = &t
	}
	if req.Status != nil {
		st := billing.ProjectStatus(*req.Status)
		patch.Status = &st
	}
	if err := project.Update(patch); err != nil {
		return nil, err
	}

	// The guarantee is applied after the value change so a percent based
	// guarantee is computed against the new value.
	if req.PG.Set {
		if req.PG.Value == nil {
			err = project.RemoveGuarantee()
		} else {
			err = project.AssignGuarantee(req.PG.Value.toInput())
		}
		if err != nil {
			return nil, err
		}
	}

	if err := s.projectRepo.SaveWithLock(ctx, project); err != nil {
		return nil, err
	}
	s.hooks.committed(ctx, project)
	return s.respond(ctx, project)
}

// Delete removes a project with its bills and files
func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	files, err := s.fileRepo.FindByProject(ctx, id)
	if err != nil {
		return err
	}

	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return err
	}

	if s.storage != nil {
		for _, f := range files {
			if err := s.storage.DeleteObject(ctx, f.StorageKey); err != nil {
				s.logger.Warn("Failed to delete project file content",
					zap.String("project_id", id.String()),
					zap.String("storage_key", f.StorageKey),
					zap.Error(err))
			}
		}
	}

	project.AddDomainEvent(billing.NewProjectDeletedEvent(project))
	s.hooks.committed(ctx, project)
	s.logger.Info("Project deleted", zap.String("project_id", id.String()))
	return nil
}

// ClearGuarantee releases the project guarantee. Clearing is one way.
func (s *ProjectService) ClearGuarantee(ctx context.Context, id uuid.UUID) (*ProjectResponse, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := project.ClearGuarantee(s.now()); err != nil {
		return nil, err
	}
	if err := s.projectRepo.SaveWithLock(ctx, project); err != nil {
		return nil, err
	}
	s.hooks.committed(ctx, project)
	return s.respond(ctx, project)
}

// AddBill adds a milestone to a project
func (s *ProjectService) AddBill(ctx context.Context, projectID uuid.UUID, req AddBillRequest) (*BillResponse, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	bill, err := project.AddBill(req.toDraft(), req.BypassAllocationCheck)
	if err != nil {
		return nil, err
	}
	resp := ToBillResponse(bill, project.TotalValue)

	if err := s.projectRepo.SaveWithLock(ctx, project); err != nil {
		return nil, err
	}
	s.hooks.committed(ctx, project)
	return &resp, nil
}

func (s *ProjectService) checkClient(ctx context.Context, id uuid.UUID) error {
	_, err := s.clientRepo.FindByID(ctx, id)
	return referenceError(err, "INVALID_CLIENT", "Client not found")
}

func (s *ProjectService) checkDepartment(ctx context.Context, id uuid.UUID) error {
	_, err := s.departmentRepo.FindByID(ctx, id)
	return referenceError(err, "INVALID_DEPARTMENT", "Department not found")
}

func (s *ProjectService) checkCategory(ctx context.Context, id uuid.UUID) error {
	_, err := s.categoryRepo.FindByID(ctx, id)
	return referenceError(err, "INVALID_CATEGORY", "Category not found")
}

func referenceError(err error, code, message string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewDomainError(code, message)
	}
	return err
}
