package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
	"github.com/secmon-lab/meetlink/pkg/domain/model/matching"
	"github.com/secmon-lab/meetlink/pkg/domain/types"
	"github.com/secmon-lab/meetlink/pkg/utils/logging"
)

// ContactCandidate is the identity a strategy wants to resolve to a contact
type ContactCandidate struct {
	Name    string
	Email   string
	Company string
	// Status is used only when a contact is created. Empty means new.
	Status types.PipelineStatus
}

// ContactUseCase resolves candidates to contacts, creating them conservatively
type ContactUseCase struct {
	repo interfaces.Repository
}

func NewContactUseCase(repo interfaces.Repository) *ContactUseCase {
	return &ContactUseCase{repo: repo}
}

// ResolveOrCreate returns the contact owning the candidate's email, else the contact whose
// name equals the candidate's name, else a new auto-created contact carrying provenance
// in its notes. The boolean reports whether a contact was created.
func (uc *ContactUseCase) ResolveOrCreate(ctx context.Context, cand ContactCandidate, provenance string) (*model.Contact, bool, error) {
	email := model.NormalizeEmail(cand.Email)
	name := matching.NormalizeName(cand.Name)
	if email == "" && name == "" {
		return nil, false, goerr.Wrap(ErrEmptyCandidate, "cannot resolve contact")
	}

	if email != "" {
		found, err := uc.repo.Contact().GetByEmail(ctx, email)
		if err == nil {
			return found, false, nil
		}
		if !errors.Is(err, interfaces.ErrNotFound) {
			return nil, false, goerr.Wrap(err, "failed to look up contact by email", goerr.V("email", email))
		}
	}

	if name != "" {
		found, err := uc.repo.Contact().FindByName(ctx, name)
		if err != nil {
			return nil, false, goerr.Wrap(err, "failed to look up contact by name", goerr.V("name", name))
		}
		if len(found) > 0 {
			if len(found) > 1 {
				logging.From(ctx).Warn("several contacts share a name, using the oldest", "name", name, "count", len(found))
			}
			return found[0], false, nil
		}
	}

	if name == "" {
		name = matching.DeriveNameFromEmail(email)
	}
	status := cand.Status
	if status == "" {
		status = types.PipelineStatusNew
	}

	created, err := uc.repo.Contact().Create(ctx, &model.Contact{
		Name:        name,
		Company:     strings.TrimSpace(cand.Company),
		Email:       email,
		Status:      status,
		Notes:       provenance,
		AutoCreated: true,
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) && email != "" {
			// a concurrent run created the same contact between lookup and insert
			existing, getErr := uc.repo.Contact().GetByEmail(ctx, email)
			if getErr != nil {
				return nil, false, goerr.Wrap(getErr, "failed to re-read duplicate contact", goerr.V("email", email))
			}
			logging.From(ctx).Info("contact already created by another run", "email", email, "contact_id", existing.ID)
			return existing, false, nil
		}
		return nil, false, goerr.Wrap(err, "failed to create contact", goerr.V("name", name), goerr.V("email", email))
	}

	logging.From(ctx).Info("contact auto-created", "contact_id", created.ID, "name", created.Name, "email", created.Email)
	return created, true, nil
}
