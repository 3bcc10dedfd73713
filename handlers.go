package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"bitbucket.org/arcadeworks/arcade_backend/barcode"
	"bitbucket.org/arcadeworks/arcade_backend/models"
	"bitbucket.org/arcadeworks/arcade_backend/models/reports"
	"bitbucket.org/arcadeworks/arcade_backend/utils"
	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func idParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func respondError(c *gin.Context, err error) {
	if errors.Is(err, utils.ErrorRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func intQuery(c *gin.Context, name string) *int {
	v := c.Query(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

func stringQuery(c *gin.Context, name string) *string {
	v := c.Query(name)
	if v == "" {
		return nil
	}
	return &v
}

func dateQuery(c *gin.Context, name string) *time.Time {
	v := c.Query(name)
	if v == "" {
		return nil
	}
	t, err := models.ParseDateString(v, "")
	if err != nil {
		return nil
	}
	return &t
}

// dateRangeQuery defaults to the current calendar month when from/to are
// not supplied.
func dateRangeQuery(c *gin.Context) (time.Time, time.Time) {
	from, to := utils.GetThisMonthRange()
	if t := dateQuery(c, "from"); t != nil {
		from = *t
	}
	if t := dateQuery(c, "to"); t != nil {
		to = t.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to
}

// ---- auth ----

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func loginHandler(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}
	info, err := models.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

func logoutHandler(c *gin.Context) {
	if _, err := models.Logout(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func changePasswordHandler(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "old_password and new_password are required"})
		return
	}
	if _, err := models.ChangePassword(c.Request.Context(), req.OldPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	// all sessions are destroyed, the client must log in again
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ---- users ----

func listUsersHandler(c *gin.Context) {
	users, err := models.GetAllUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func createUserHandler(c *gin.Context) {
	var input models.NewUser
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := models.CreateUser(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// ---- venues ----

func listVenuesHandler(c *gin.Context) {
	venues, err := models.ListVenue(c.Request.Context(), stringQuery(c, "name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, venues)
}

func listAllVenuesHandler(c *gin.Context) {
	venues, err := models.ListAllVenue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, venues)
}

func getVenueHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	venue, err := models.GetVenue(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, venue)
}

func createVenueHandler(c *gin.Context) {
	var input models.NewVenue
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	venue, err := models.CreateVenue(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, venue)
}

func updateVenueHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewVenue
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	venue, err := models.UpdateVenue(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, venue)
}

func deleteVenueHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	venue, err := models.DeleteVenue(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, venue)
}

type toggleActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func toggleVenueHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req toggleActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_active is required"})
		return
	}
	venue, err := models.ToggleActiveVenue(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, venue)
}

// ---- machines ----

func listMachinesHandler(c *gin.Context) {
	var status *models.MachineStatus
	if v := c.Query("status"); v != "" {
		s := models.MachineStatus(v)
		status = &s
	}
	machines, err := models.ListMachine(c.Request.Context(), intQuery(c, "venue_id"), status, stringQuery(c, "name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, machines)
}

func listAllMachinesHandler(c *gin.Context) {
	machines, err := models.ListAllMachine(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, machines)
}

func getMachineHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	machine, err := models.GetMachine(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, machine)
}

func createMachineHandler(c *gin.Context) {
	var input models.NewMachine
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	machine, err := models.CreateMachine(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, machine)
}

func updateMachineHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewMachine
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	machine, err := models.UpdateMachine(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, machine)
}

func deleteMachineHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	machine, err := models.DeleteMachine(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, machine)
}

func toggleMachineHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req toggleActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_active is required"})
		return
	}
	machine, err := models.ToggleActiveMachine(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, machine)
}

func machineStockHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	stock, err := models.ListMachineStock(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stock)
}

func machineTimelineHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	records, warnings, err := reports.GetMaintenanceTimeline(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "warnings": warnings})
}

func machineMaintenanceStatsHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	stats, err := reports.GetMaintenanceStats(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ---- barcode ----

type barcodeLookupRequest struct {
	Value string `json:"value" binding:"required"`
}

func barcodeLookupHandler(c *gin.Context) {
	var req barcodeLookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value is required"})
		return
	}
	if err := barcode.ValidateBarcodeValue(req.Value); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	machine, err := models.LookupMachineByBarcode(c.Request.Context(), req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, machine)
}

// barcodeDecodeHandler accepts one camera frame as a multipart upload,
// decodes it and looks up the machine in one round trip.
func barcodeDecodeHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("frame")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "frame file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read frame"})
		return
	}
	defer file.Close()

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image format"})
		return
	}

	result, err := barcode.DecodeFrame(img)
	if err != nil {
		respondError(c, err)
		return
	}
	if result == nil {
		// no barcode in this frame, the client keeps streaming
		c.JSON(http.StatusOK, gin.H{"decoded": false})
		return
	}

	machine, err := models.LookupMachineByBarcode(c.Request.Context(), result.Text)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"decoded": true, "result": result, "machine": nil})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"decoded": true, "result": result, "machine": machine})
}

// ---- prizes ----

func listPrizesHandler(c *gin.Context) {
	prizes, err := models.ListPrize(c.Request.Context(), stringQuery(c, "name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prizes)
}

func listAllPrizesHandler(c *gin.Context) {
	prizes, err := models.ListAllPrize(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prizes)
}

func getPrizeHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	prize, err := models.GetPrize(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prize)
}

func createPrizeHandler(c *gin.Context) {
	var input models.NewPrize
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	prize, err := models.CreatePrize(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, prize)
}

func updatePrizeHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewPrize
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	prize, err := models.UpdatePrize(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prize)
}

func deletePrizeHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	prize, err := models.DeletePrize(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prize)
}

func togglePrizeHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req toggleActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_active is required"})
		return
	}
	prize, err := models.ToggleActivePrize(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prize)
}

// ---- parts ----

func listPartsHandler(c *gin.Context) {
	var belowReorder *bool
	if v := c.Query("below_reorder"); v == "true" {
		belowReorder = utils.NewTrue()
	}
	parts, err := models.ListPart(c.Request.Context(), stringQuery(c, "name"), belowReorder)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, parts)
}

func listAllPartsHandler(c *gin.Context) {
	parts, err := models.ListAllPart(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, parts)
}

func getPartHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	part, err := models.GetPart(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, part)
}

func createPartHandler(c *gin.Context) {
	var input models.NewPart
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	part, err := models.CreatePart(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, part)
}

func updatePartHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewPart
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	part, err := models.UpdatePart(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, part)
}

func deletePartHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	part, err := models.DeletePart(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, part)
}

// ---- stock movements ----

func listStockMovementsHandler(c *gin.Context) {
	var movementType *models.MovementType
	if v := c.Query("type"); v != "" {
		t := models.MovementType(v)
		movementType = &t
	}
	movements, err := models.ListStockMovement(c.Request.Context(),
		intQuery(c, "machine_id"), movementType, dateQuery(c, "from"), dateQuery(c, "to"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, movements)
}

func getStockMovementHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	movement, err := models.GetStockMovement(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, movement)
}

func createStockMovementHandler(c *gin.Context) {
	var input models.NewStockMovement
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	movement, err := models.CreateStockMovement(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, movement)
}

func deleteStockMovementHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	movement, err := models.DeleteStockMovement(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, movement)
}

// ---- machine reports (collections) ----

func listMachineReportsHandler(c *gin.Context) {
	result, err := models.ListMachineReport(c.Request.Context(),
		intQuery(c, "machine_id"), dateQuery(c, "from"), dateQuery(c, "to"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func getMachineReportHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	report, err := models.GetMachineReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func createMachineReportHandler(c *gin.Context) {
	var input models.NewMachineReport
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	report, err := models.CreateMachineReport(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

type updateMachineReportRequest struct {
	MoneyCollected *decimal.Decimal `json:"money_collected"`
	Notes          *string          `json:"notes"`
}

func updateMachineReportHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req updateMachineReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	report, err := models.UpdateMachineReport(c.Request.Context(), id, req.MoneyCollected, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func deleteMachineReportHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	report, err := models.DeleteMachineReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ---- job reports ----

func listJobReportsHandler(c *gin.Context) {
	var status *models.JobStatus
	if v := c.Query("status"); v != "" {
		s := models.JobStatus(v)
		status = &s
	}
	var priority *models.JobPriority
	if v := c.Query("priority"); v != "" {
		p := models.JobPriority(v)
		priority = &p
	}
	result, err := models.ListReport(c.Request.Context(), intQuery(c, "machine_id"), status, priority)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func getJobReportHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	report, err := models.GetReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func createJobReportHandler(c *gin.Context) {
	var input models.NewReport
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	report, err := models.CreateReport(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

func updateJobReportHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewReport
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	report, err := models.UpdateReport(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func deleteJobReportHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	report, err := models.DeleteReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ---- maintenance entries ----

func listMaintenanceEntriesHandler(c *gin.Context) {
	entries, err := models.ListMaintenanceEntry(c.Request.Context(),
		intQuery(c, "machine_id"), dateQuery(c, "from"), dateQuery(c, "to"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func getMaintenanceEntryHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	entry, err := models.GetMaintenanceEntry(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func createMaintenanceEntryHandler(c *gin.Context) {
	var input models.NewMaintenanceEntry
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry, err := models.CreateMaintenanceEntry(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func updateMaintenanceEntryHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewMaintenanceEntry
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry, err := models.UpdateMaintenanceEntry(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func deleteMaintenanceEntryHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	entry, err := models.DeleteMaintenanceEntry(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// ---- equipment hire ----

func listEquipmentHiresHandler(c *gin.Context) {
	var status *models.HireStatus
	if v := c.Query("status"); v != "" {
		s := models.HireStatus(v)
		status = &s
	}
	hires, err := models.ListEquipmentHire(c.Request.Context(), intQuery(c, "venue_id"), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hires)
}

func getEquipmentHireHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	hire, err := models.GetEquipmentHire(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hire)
}

func createEquipmentHireHandler(c *gin.Context) {
	var input models.NewEquipmentHire
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	hire, err := models.CreateEquipmentHire(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, hire)
}

func updateEquipmentHireHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewEquipmentHire
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	hire, err := models.UpdateEquipmentHire(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hire)
}

func deleteEquipmentHireHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	hire, err := models.DeleteEquipmentHire(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hire)
}

// ---- paywave terminals ----

func listPaywaveTerminalsHandler(c *gin.Context) {
	terminals, err := models.ListMachinePaywaveTerminal(c.Request.Context(), intQuery(c, "machine_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, terminals)
}

func getPaywaveTerminalHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	terminal, err := models.GetMachinePaywaveTerminal(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, terminal)
}

func createPaywaveTerminalHandler(c *gin.Context) {
	var input models.NewMachinePaywaveTerminal
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	terminal, err := models.CreateMachinePaywaveTerminal(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, terminal)
}

func updatePaywaveTerminalHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewMachinePaywaveTerminal
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	terminal, err := models.UpdateMachinePaywaveTerminal(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, terminal)
}

func deletePaywaveTerminalHandler(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	terminal, err := models.DeleteMachinePaywaveTerminal(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, terminal)
}

// ---- reports ----

func revenueByVenueHandler(c *gin.Context) {
	from, to := dateRangeQuery(c)
	result, err := reports.GetRevenueByVenueReport(c.Request.Context(), from, to, intQuery(c, "venue_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func revenueByMachineHandler(c *gin.Context) {
	from, to := dateRangeQuery(c)
	result, err := reports.GetMachineRevenueReport(c.Request.Context(), from, to, intQuery(c, "venue_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func revenueExportHandler(c *gin.Context) {
	from, to := dateRangeQuery(c)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=revenue-by-venue.xlsx")
	if err := reports.ExportRevenueByVenueExcel(c.Request.Context(), c.Writer, from, to, intQuery(c, "venue_id")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
}

// ---- histories ----

func listHistoriesHandler(c *gin.Context) {
	histories, err := models.GetHistories(c.Request.Context(),
		intQuery(c, "reference_id"), stringQuery(c, "reference_type"), intQuery(c, "user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, histories)
}
