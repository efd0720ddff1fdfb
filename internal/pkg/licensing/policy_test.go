package licensing

import (
	"testing"

	"github.com/FlorianSchwab/GuildKeeper/app/models"
)

func TestPolicyNonOwnerAlwaysDenied(t *testing.T) {
	svc, repo, _, _ := newTestService()
	policy := NewPolicy(repo)

	owner := &models.User{ID: 1}
	stranger := &models.User{ID: 2}
	guild := repo.addGuild("alpha")
	repo.setAdmin(stranger.ID, guild.ID, true)

	license := newParkedTestLicense(t, svc, owner.ID)
	if err := svc.Assign(license, guild); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if policy.CanView(stranger, license) {
		t.Fatal("non-owner must not view")
	}
	if policy.CanPark(stranger, license) {
		t.Fatal("non-owner must not park")
	}
	if policy.CanDelete(stranger, license) {
		t.Fatal("non-owner must not delete")
	}
	ok, err := policy.CanAssign(stranger, license, guild)
	if err != nil {
		t.Fatalf("CanAssign: %v", err)
	}
	if ok {
		t.Fatal("non-owner must not assign, even as guild admin")
	}
}

func TestPolicyCanAssign(t *testing.T) {
	svc, repo, _, _ := newTestService()
	policy := NewPolicy(repo)

	owner := &models.User{ID: 1}
	guild := repo.addGuild("alpha")
	license := newParkedTestLicense(t, svc, owner.ID)

	// Not an admin of the guild yet.
	ok, err := policy.CanAssign(owner, license, guild)
	if err != nil {
		t.Fatalf("CanAssign: %v", err)
	}
	if ok {
		t.Fatal("assign must require guild admin")
	}

	repo.setAdmin(owner.ID, guild.ID, true)
	ok, err = policy.CanAssign(owner, license, guild)
	if err != nil {
		t.Fatalf("CanAssign: %v", err)
	}
	if !ok {
		t.Fatal("owner + admin + free guild must be allowed")
	}

	// Guild gets taken by another license.
	other := newParkedTestLicense(t, svc, 2)
	if err := svc.Assign(other, guild); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	ok, err = policy.CanAssign(owner, license, guild)
	if err != nil {
		t.Fatalf("CanAssign: %v", err)
	}
	if ok {
		t.Fatal("assign to a licensed guild must be denied")
	}
}

func TestPolicyCanPark(t *testing.T) {
	svc, repo, _, _ := newTestService()
	policy := NewPolicy(repo)

	owner := &models.User{ID: 1}
	guild := repo.addGuild("alpha")
	license := newParkedTestLicense(t, svc, owner.ID)

	if policy.CanPark(owner, license) {
		t.Fatal("parked license cannot be parked")
	}

	if err := svc.Assign(license, guild); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if !policy.CanPark(owner, license) {
		t.Fatal("owner must be able to park an active license")
	}
}

func TestPolicyCanTransferAliasesCanAssign(t *testing.T) {
	svc, repo, _, _ := newTestService()
	policy := NewPolicy(repo)

	owner := &models.User{ID: 1}
	first := repo.addGuild("alpha")
	second := repo.addGuild("beta")
	repo.setAdmin(owner.ID, first.ID, true)
	repo.setAdmin(owner.ID, second.ID, true)

	license := newParkedTestLicense(t, svc, owner.ID)
	if err := svc.Assign(license, first); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	ok, err := policy.CanTransfer(owner, license, second)
	if err != nil {
		t.Fatalf("CanTransfer: %v", err)
	}
	if !ok {
		t.Fatal("transfer to a free admin guild must be allowed")
	}
}
