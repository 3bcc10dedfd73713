package models

import (
	"fmt"

	"gorm.io/gorm"
)

// Audit history is written from gorm callbacks so every code path that
// touches a row leaves a trail. Column-level writes (UpdateColumn) skip
// callbacks on purpose, e.g. the machine counter bump on collection.

func (v *Venue) AfterCreate(tx *gorm.DB) (err error) {
	return SaveHistoryCreate(tx, v.ID, v, "Created Venue")
}

func (v *Venue) BeforeUpdate(tx *gorm.DB) (err error) {
	return SaveHistoryUpdate(tx, v.ID, v, "Updated Venue")
}

func (v *Venue) AfterDelete(tx *gorm.DB) (err error) {
	return SaveHistoryDelete(tx, v.ID, v, "Deleted Venue")
}

func (m *Machine) AfterCreate(tx *gorm.DB) (err error) {
	return SaveHistoryCreate(tx, m.ID, m, "Created Machine")
}

func (m *Machine) BeforeUpdate(tx *gorm.DB) (err error) {
	return SaveHistoryUpdate(tx, m.ID, m, "Updated Machine")
}

func (m *Machine) AfterDelete(tx *gorm.DB) (err error) {
	return SaveHistoryDelete(tx, m.ID, m, "Deleted Machine")
}

func (p *Prize) AfterCreate(tx *gorm.DB) (err error) {
	return SaveHistoryCreate(tx, p.ID, p, "Created Prize")
}

func (p *Prize) BeforeUpdate(tx *gorm.DB) (err error) {
	return SaveHistoryUpdate(tx, p.ID, p, "Updated Prize")
}

func (p *Prize) AfterDelete(tx *gorm.DB) (err error) {
	return SaveHistoryDelete(tx, p.ID, p, "Deleted Prize")
}

func (p *Part) AfterCreate(tx *gorm.DB) (err error) {
	return SaveHistoryCreate(tx, p.ID, p, "Created Part")
}

func (p *Part) BeforeUpdate(tx *gorm.DB) (err error) {
	return SaveHistoryUpdate(tx, p.ID, p, "Updated Part")
}

func (p *Part) AfterDelete(tx *gorm.DB) (err error) {
	return SaveHistoryDelete(tx, p.ID, p, "Deleted Part")
}

func (r *MachineReport) AfterCreate(tx *gorm.DB) (err error) {
	description := fmt.Sprintf("Recorded collection of %s for machine %d", r.MoneyCollected.StringFixed(2), r.MachineId)
	return SaveHistoryCreate(tx, r.ID, r, description)
}

func (r *MachineReport) BeforeUpdate(tx *gorm.DB) (err error) {
	return SaveHistoryUpdate(tx, r.ID, r, "Updated Collection Report")
}

func (r *MachineReport) AfterDelete(tx *gorm.DB) (err error) {
	return SaveHistoryDelete(tx, r.ID, r, "Deleted Collection Report")
}

func (r *Report) AfterCreate(tx *gorm.DB) (err error) {
	return SaveHistoryCreate(tx, r.ID, r, "Created Job Report")
}

func (r *Report) BeforeUpdate(tx *gorm.DB) (err error) {
	return SaveHistoryUpdate(tx, r.ID, r, "Updated Job Report")
}

func (r *Report) AfterDelete(tx *gorm.DB) (err error) {
	return SaveHistoryDelete(tx, r.ID, r, "Deleted Job Report")
}

func (m *StockMovement) AfterCreate(tx *gorm.DB) (err error) {
	description := fmt.Sprintf("%s movement of %d", m.MovementType, m.Quantity)
	return SaveHistoryCreate(tx, m.ID, m, description)
}

func (m *StockMovement) AfterDelete(tx *gorm.DB) (err error) {
	return SaveHistoryDelete(tx, m.ID, m, "Deleted Stock Movement")
}

func (e *EquipmentHire) AfterCreate(tx *gorm.DB) (err error) {
	return SaveHistoryCreate(tx, e.ID, e, "Created Equipment Hire")
}

func (e *EquipmentHire) BeforeUpdate(tx *gorm.DB) (err error) {
	return SaveHistoryUpdate(tx, e.ID, e, "Updated Equipment Hire")
}

func (e *EquipmentHire) AfterDelete(tx *gorm.DB) (err error) {
	return SaveHistoryDelete(tx, e.ID, e, "Deleted Equipment Hire")
}

func (t *MachinePaywaveTerminal) AfterCreate(tx *gorm.DB) (err error) {
	return SaveHistoryCreate(tx, t.ID, t, "Created Paywave Terminal")
}

func (t *MachinePaywaveTerminal) BeforeUpdate(tx *gorm.DB) (err error) {
	return SaveHistoryUpdate(tx, t.ID, t, "Updated Paywave Terminal")
}

func (t *MachinePaywaveTerminal) AfterDelete(tx *gorm.DB) (err error) {
	return SaveHistoryDelete(tx, t.ID, t, "Deleted Paywave Terminal")
}

func (u *User) AfterCreate(tx *gorm.DB) (err error) {
	return createHistory(tx, "REGISTER", u.ID, "users", nil, u, "created user "+u.Username)
}
