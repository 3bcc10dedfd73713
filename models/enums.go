package models

import "errors"

type UserRole string

const (
	UserRoleAdmin      UserRole = "A"
	UserRoleOperator   UserRole = "O"
	UserRoleTechnician UserRole = "T"
)

type MachineType string

const (
	MachineTypeClaw       MachineType = "Claw"
	MachineTypeVending    MachineType = "Vending"
	MachineTypeArcade     MachineType = "Arcade"
	MachineTypeRedemption MachineType = "Redemption"
)

func (t MachineType) Validate() error {
	switch t {
	case MachineTypeClaw, MachineTypeVending, MachineTypeArcade, MachineTypeRedemption:
		return nil
	}
	return errors.New("invalid machine type")
}

type MachineStatus string

const (
	MachineStatusActive      MachineStatus = "Active"
	MachineStatusMaintenance MachineStatus = "Maintenance"
	MachineStatusStorage     MachineStatus = "Storage"
	MachineStatusRetired     MachineStatus = "Retired"
)

func (s MachineStatus) Validate() error {
	switch s {
	case MachineStatusActive, MachineStatusMaintenance, MachineStatusStorage, MachineStatusRetired:
		return nil
	}
	return errors.New("invalid machine status")
}

type MovementType string

const (
	MovementTypeInstall MovementType = "Install"
	MovementTypeRestock MovementType = "Restock"
	MovementTypeRemove  MovementType = "Remove"
	MovementTypeReturn  MovementType = "Return"
)

func (t MovementType) Validate() error {
	switch t {
	case MovementTypeInstall, MovementTypeRestock, MovementTypeRemove, MovementTypeReturn:
		return nil
	}
	return errors.New("invalid movement type")
}

type JobStatus string

const (
	JobStatusOpen       JobStatus = "Open"
	JobStatusInProgress JobStatus = "InProgress"
	JobStatusCompleted  JobStatus = "Completed"
)

func (s JobStatus) Validate() error {
	switch s {
	case JobStatusOpen, JobStatusInProgress, JobStatusCompleted:
		return nil
	}
	return errors.New("invalid job status")
}

type JobPriority string

const (
	JobPriorityLow    JobPriority = "Low"
	JobPriorityNormal JobPriority = "Normal"
	JobPriorityHigh   JobPriority = "High"
	JobPriorityUrgent JobPriority = "Urgent"
)

func (p JobPriority) Validate() error {
	switch p {
	case JobPriorityLow, JobPriorityNormal, JobPriorityHigh, JobPriorityUrgent:
		return nil
	}
	return errors.New("invalid job priority")
}

type MaintenanceCategory string

const (
	MaintenanceCategoryMechanical   MaintenanceCategory = "Mechanical"
	MaintenanceCategoryElectrical   MaintenanceCategory = "Electrical"
	MaintenanceCategoryCosmetic     MaintenanceCategory = "Cosmetic"
	MaintenanceCategorySoftware     MaintenanceCategory = "Software"
	MaintenanceCategoryPreventative MaintenanceCategory = "Preventative"
	MaintenanceCategoryOther        MaintenanceCategory = "Other"
)

func (c MaintenanceCategory) Validate() error {
	switch c {
	case MaintenanceCategoryMechanical, MaintenanceCategoryElectrical,
		MaintenanceCategoryCosmetic, MaintenanceCategorySoftware,
		MaintenanceCategoryPreventative, MaintenanceCategoryOther:
		return nil
	}
	return errors.New("invalid maintenance category")
}

type HireStatus string

const (
	HireStatusBooked   HireStatus = "Booked"
	HireStatusOut      HireStatus = "Out"
	HireStatusReturned HireStatus = "Returned"
	HireStatusOverdue  HireStatus = "Overdue"
)

func (s HireStatus) Validate() error {
	switch s {
	case HireStatusBooked, HireStatusOut, HireStatusReturned, HireStatusOverdue:
		return nil
	}
	return errors.New("invalid hire status")
}

// MachineEventAction mirrors the action byte on outbox records.
type MachineEventAction string

const (
	MachineEventActionCreate MachineEventAction = "C"
	MachineEventActionUpdate MachineEventAction = "U"
	MachineEventActionDelete MachineEventAction = "D"
)

// MachineEventReferenceType identifies which table an outbox record points at.
type MachineEventReferenceType string

const (
	MachineEventReferenceTypeMachine          MachineEventReferenceType = "MC"
	MachineEventReferenceTypeMachineReport    MachineEventReferenceType = "MR"
	MachineEventReferenceTypeStockMovement    MachineEventReferenceType = "SM"
	MachineEventReferenceTypeJobReport        MachineEventReferenceType = "JR"
	MachineEventReferenceTypeMaintenanceEntry MachineEventReferenceType = "ME"
	MachineEventReferenceTypeEquipmentHire    MachineEventReferenceType = "EH"
)
