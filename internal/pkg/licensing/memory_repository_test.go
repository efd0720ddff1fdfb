package licensing

import (
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/FlorianSchwab/GuildKeeper/app/models"
)

// memoryRepository implements Repository without a database. The mutex gives
// Assign the same check-and-write atomicity the GORM implementation gets from
// its transaction and row lock.
type memoryRepository struct {
	mu       sync.Mutex
	nextID   uint
	licenses map[uint]*models.License
	guilds   map[uint]*models.Guild
	admins   map[[2]uint]bool // (userID, guildID)

	// test hook to inject per-guild admin lookup failures
	isAdminErr func(userID, guildID uint) error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		licenses: make(map[uint]*models.License),
		guilds:   make(map[uint]*models.Guild),
		admins:   make(map[[2]uint]bool),
	}
}

func (m *memoryRepository) addGuild(name string) *models.Guild {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	g := &models.Guild{ID: m.nextID, DiscordID: name, Name: name}
	m.guilds[g.ID] = g
	return g
}

func (m *memoryRepository) removeGuild(id uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.guilds, id)
}

func (m *memoryRepository) setAdmin(userID, guildID uint, isAdmin bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.admins[[2]uint{userID, guildID}] = isAdmin
}

func (m *memoryRepository) CreateLicense(license *models.License) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	license.ID = m.nextID
	m.licenses[license.ID] = license
	return nil
}

func (m *memoryRepository) GetLicense(id uint) (*models.License, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.licenses[id]; ok {
		return l, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryRepository) GetLicenseByStripeID(stripeID string) (*models.License, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.licenses {
		if l.StripeID == stripeID {
			return l, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryRepository) ListLicensesByUser(userID uint) ([]models.License, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.License
	for _, l := range m.licenses {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *memoryRepository) ListActiveLicenses() ([]models.License, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.License
	for _, l := range m.licenses {
		if l.Status == models.LICENSE_STATUS_ACTIVE {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *memoryRepository) DeleteLicense(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.licenses, id)
	return nil
}

func (m *memoryRepository) GetGuild(id uint) (*models.Guild, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.guilds[id]; ok {
		return g, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryRepository) GuildHasActiveLicense(guildID, excludeLicenseID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.guildTakenLocked(guildID, excludeLicenseID), nil
}

func (m *memoryRepository) guildTakenLocked(guildID, excludeLicenseID uint) bool {
	for _, l := range m.licenses {
		if l.ID == excludeLicenseID {
			continue
		}
		if l.Status == models.LICENSE_STATUS_ACTIVE && l.AssignedGuildID != nil && *l.AssignedGuildID == guildID {
			return true
		}
	}
	return false
}

func (m *memoryRepository) IsGuildAdmin(userID, guildID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isAdminErr != nil {
		if err := m.isAdminErr(userID, guildID); err != nil {
			return false, err
		}
	}
	return m.admins[[2]uint{userID, guildID}], nil
}

func (m *memoryRepository) ListAvailableGuilds(userID uint) ([]models.Guild, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Guild
	for _, g := range m.guilds {
		if m.admins[[2]uint{userID, g.ID}] && !m.guildTakenLocked(g.ID, 0) {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (m *memoryRepository) Assign(license *models.License, guildID uint, assignedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.guilds[guildID]; !ok {
		return gorm.ErrRecordNotFound
	}
	if m.guildTakenLocked(guildID, license.ID) {
		return ErrGuildAlreadyLicensed
	}

	stored, ok := m.licenses[license.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	at := assignedAt
	gid := guildID
	stored.Status = models.LICENSE_STATUS_ACTIVE
	stored.AssignedGuildID = &gid
	stored.LastAssignedAt = &at
	if stored != license {
		license.Status = stored.Status
		license.AssignedGuildID = stored.AssignedGuildID
		license.LastAssignedAt = stored.LastAssignedAt
	}
	return nil
}

func (m *memoryRepository) Park(license *models.License) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.licenses[license.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Status = models.LICENSE_STATUS_PARKED
	stored.AssignedGuildID = nil
	if stored != license {
		license.Status = stored.Status
		license.AssignedGuildID = nil
	}
	return nil
}
