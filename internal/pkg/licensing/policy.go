package licensing

import "github.com/FlorianSchwab/GuildKeeper/app/models"

// Policy decides whether a user-initiated request against a license is
// admissible. It is evaluated before every mutating operation; the service
// re-verifies guild exclusivity at commit time, so a stale positive answer
// here cannot violate the single-license-per-guild rule.
type Policy struct {
	repo Repository
}

// NewPolicy creates an authorization policy over the licensing repository.
func NewPolicy(repo Repository) *Policy {
	return &Policy{repo: repo}
}

// CanView allows owners to see their licenses.
func (p *Policy) CanView(user *models.User, license *models.License) bool {
	return user.ID == license.UserID
}

// CanDelete allows owners to delete their licenses.
func (p *Policy) CanDelete(user *models.User, license *models.License) bool {
	return user.ID == license.UserID
}

// CanPark allows owners to park a license that is currently active.
func (p *Policy) CanPark(user *models.User, license *models.License) bool {
	return user.ID == license.UserID && license.IsActive()
}

// CanAssign allows owners to assign a license to a guild they administrate,
// provided the guild holds no active license. Admin status is re-read from
// the membership table on every check.
func (p *Policy) CanAssign(user *models.User, license *models.License, guild *models.Guild) (bool, error) {
	if user.ID != license.UserID {
		return false, nil
	}

	admin, err := p.repo.IsGuildAdmin(user.ID, guild.ID)
	if err != nil {
		return false, err
	}
	if !admin {
		return false, nil
	}

	taken, err := p.repo.GuildHasActiveLicense(guild.ID, 0)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

// CanTransfer is an alias of CanAssign: a transfer is an assign applied to an
// already-active license targeting a different guild.
func (p *Policy) CanTransfer(user *models.User, license *models.License, guild *models.Guild) (bool, error) {
	return p.CanAssign(user, license, guild)
}
