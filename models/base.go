package models

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"bitbucket.org/arcadeworks/arcade_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PublishMachineEvent implements the transactional outbox: it writes the
// event record inside the caller's DB transaction but does NOT publish to
// Pub/Sub. Publishing is performed asynchronously by the outbox dispatcher
// after commit.
func PublishMachineEvent(ctx context.Context, db *gorm.DB, businessId string, occurredAt time.Time, refId int, refType MachineEventReferenceType, obj interface{}, oldObj interface{}, action MachineEventAction) error {

	var objInByte []byte
	var oldObjInByte []byte
	var err error

	if action == MachineEventActionCreate || action == MachineEventActionUpdate {
		objInByte, err = ToJSONWithoutFields(obj, "Venue", "Machine")
		if err != nil {
			return err
		}
	}
	if action == MachineEventActionUpdate || action == MachineEventActionDelete {
		oldObjInByte, err = ToJSONWithoutFields(oldObj, "Venue", "Machine")
		if err != nil {
			return err
		}
	}

	record := MachineEventRecord{
		BusinessId:    businessId,
		OccurredAt:    occurredAt,
		ReferenceId:   refId,
		ReferenceType: refType,
		Action:        action,
		NewObj:        objInByte,
		OldObj:        oldObjInByte,
		IsProcessed:   false,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	err = db.Create(&record).Error
	if err != nil {
		return err
	}
	return nil
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

// ToJSONWithoutFields converts an object to JSON after temporarily zeroing
// the named fields. Used to keep preloaded associations out of event payloads.
func ToJSONWithoutFields(obj interface{}, fieldNames ...string) ([]byte, error) {
	// Get the value of the object
	val := reflect.ValueOf(obj)

	// If the value is an interface, get the concrete value it holds
	if val.Kind() == reflect.Interface {
		val = val.Elem()
	}

	// If the value is not a pointer, create a pointer to it
	if val.Kind() != reflect.Ptr {
		valPtr := reflect.New(val.Type())
		valPtr.Elem().Set(val)
		val = valPtr
	}

	// Dereference the pointer
	val = val.Elem()

	// Ensure the value is a struct
	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected a struct, got %v", val.Kind())
	}

	// Zero the named fields, remembering the originals
	type saved struct {
		field    reflect.Value
		original reflect.Value
	}
	var cleared []saved
	for _, name := range fieldNames {
		field := val.FieldByName(name)
		if !field.IsValid() {
			continue
		}
		originalValue := reflect.New(field.Type()).Elem()
		originalValue.Set(field)
		field.Set(reflect.Zero(field.Type()))
		cleared = append(cleared, saved{field: field, original: originalValue})
	}

	jsonData, err := json.Marshal(val.Interface())

	// Restore the original values
	for _, s := range cleared {
		s.field.Set(s.original)
	}
	if err != nil {
		return nil, err
	}
	return jsonData, nil
}

func ParseDateString(dateString string, timezone string) (time.Time, error) {

	// Parse the date string into a time.Time object
	localTime, err := time.Parse("2006-01-02T15:04:05", dateString)
	if err != nil {
		return time.Time{}, err
	}

	if timezone == "" {
		timezone = "Australia/Sydney"
	}

	// Load the location for the given timezone
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, err
	}

	// Convert the local time to the specified timezone
	localTimeInZone := time.Date(
		localTime.Year(), localTime.Month(), localTime.Day(),
		localTime.Hour(), localTime.Minute(), localTime.Second(), localTime.Nanosecond(),
		location,
	)

	// Convert the time to UTC
	return localTimeInZone.UTC(), nil
}
