// Package models defines the core domain types for assetscan.
package models

import "time"

// Sentinel is the placeholder value the extraction providers emit for
// fields that cannot be found in a report. It is real text as far as the
// view engine is concerned: only the empty string counts as empty.
const Sentinel = "nill"

// Column names, in the canonical display and export order.
const (
	ColAssetTag      = "Asset Tag"
	ColBlock         = "Block"
	ColFloor         = "Floor"
	ColDept          = "Dept"
	ColBrand         = "Brand"
	ColServiceTag    = "Service Tag"
	ColComputerName  = "Computer Name"
	ColProcessorType = "Processor Type"
	ColProcessorGen  = "Processor Generation"
	ColProcessorGHz  = "Processor Speed (GHz)"
	ColRAMGB         = "RAM (GB)"
	ColDriveType     = "Hard Drive Type"
	ColDriveSize     = "Hard Drive Size"
	ColGraphicsCard  = "Graphics Card"
	ColOSName        = "Operating System OS"
	ColOSArch        = "Operating System Architecture"
	ColOSVersion     = "Operating System Version"
	ColWindowsKey    = "Windows License Key"
	ColOfficeVersion = "MS Office Version"
	ColOfficeKey     = "MS Office License Key"
	ColInstalledApps = "Installed Applications"
	ColAntivirus     = "Antivirus"
	ColIPAddress     = "IP Address"
	ColRemarks       = "Remarks"
)

// Columns is the fixed, ordered column set shared by the view engine, the
// exporters, and the assets table schema.
var Columns = []string{
	ColAssetTag,
	ColBlock,
	ColFloor,
	ColDept,
	ColBrand,
	ColServiceTag,
	ColComputerName,
	ColProcessorType,
	ColProcessorGen,
	ColProcessorGHz,
	ColRAMGB,
	ColDriveType,
	ColDriveSize,
	ColGraphicsCard,
	ColOSName,
	ColOSArch,
	ColOSVersion,
	ColWindowsKey,
	ColOfficeVersion,
	ColOfficeKey,
	ColInstalledApps,
	ColAntivirus,
	ColIPAddress,
	ColRemarks,
}

// AssetRecord is one normalized asset. Every field is a string; missing
// data is the Sentinel value, never an absent field. The JSON tags use the
// display column names so exports round-trip against the history schema.
type AssetRecord struct {
	AssetTag      string `json:"Asset Tag"`
	Block         string `json:"Block"`
	Floor         string `json:"Floor"`
	Dept          string `json:"Dept"`
	Brand         string `json:"Brand"`
	ServiceTag    string `json:"Service Tag"`
	ComputerName  string `json:"Computer Name"`
	ProcessorType string `json:"Processor Type"`
	ProcessorGen  string `json:"Processor Generation"`
	ProcessorGHz  string `json:"Processor Speed (GHz)"`
	RAMGB         string `json:"RAM (GB)"`
	DriveType     string `json:"Hard Drive Type"`
	DriveSize     string `json:"Hard Drive Size"`
	GraphicsCard  string `json:"Graphics Card"`
	OSName        string `json:"Operating System OS"`
	OSArch        string `json:"Operating System Architecture"`
	OSVersion     string `json:"Operating System Version"`
	WindowsKey    string `json:"Windows License Key"`
	OfficeVersion string `json:"MS Office Version"`
	OfficeKey     string `json:"MS Office License Key"`
	InstalledApps string `json:"Installed Applications"`
	Antivirus     string `json:"Antivirus"`
	IPAddress     string `json:"IP Address"`
	Remarks       string `json:"Remarks"`
}

// Get returns the value of the named column. Unknown columns return "".
func (r AssetRecord) Get(column string) string {
	switch column {
	case ColAssetTag:
		return r.AssetTag
	case ColBlock:
		return r.Block
	case ColFloor:
		return r.Floor
	case ColDept:
		return r.Dept
	case ColBrand:
		return r.Brand
	case ColServiceTag:
		return r.ServiceTag
	case ColComputerName:
		return r.ComputerName
	case ColProcessorType:
		return r.ProcessorType
	case ColProcessorGen:
		return r.ProcessorGen
	case ColProcessorGHz:
		return r.ProcessorGHz
	case ColRAMGB:
		return r.RAMGB
	case ColDriveType:
		return r.DriveType
	case ColDriveSize:
		return r.DriveSize
	case ColGraphicsCard:
		return r.GraphicsCard
	case ColOSName:
		return r.OSName
	case ColOSArch:
		return r.OSArch
	case ColOSVersion:
		return r.OSVersion
	case ColWindowsKey:
		return r.WindowsKey
	case ColOfficeVersion:
		return r.OfficeVersion
	case ColOfficeKey:
		return r.OfficeKey
	case ColInstalledApps:
		return r.InstalledApps
	case ColAntivirus:
		return r.Antivirus
	case ColIPAddress:
		return r.IPAddress
	case ColRemarks:
		return r.Remarks
	}
	return ""
}

// Set assigns the value of the named column. Unknown columns are ignored.
func (r *AssetRecord) Set(column, value string) {
	switch column {
	case ColAssetTag:
		r.AssetTag = value
	case ColBlock:
		r.Block = value
	case ColFloor:
		r.Floor = value
	case ColDept:
		r.Dept = value
	case ColBrand:
		r.Brand = value
	case ColServiceTag:
		r.ServiceTag = value
	case ColComputerName:
		r.ComputerName = value
	case ColProcessorType:
		r.ProcessorType = value
	case ColProcessorGen:
		r.ProcessorGen = value
	case ColProcessorGHz:
		r.ProcessorGHz = value
	case ColRAMGB:
		r.RAMGB = value
	case ColDriveType:
		r.DriveType = value
	case ColDriveSize:
		r.DriveSize = value
	case ColGraphicsCard:
		r.GraphicsCard = value
	case ColOSName:
		r.OSName = value
	case ColOSArch:
		r.OSArch = value
	case ColOSVersion:
		r.OSVersion = value
	case ColWindowsKey:
		r.WindowsKey = value
	case ColOfficeVersion:
		r.OfficeVersion = value
	case ColOfficeKey:
		r.OfficeKey = value
	case ColInstalledApps:
		r.InstalledApps = value
	case ColAntivirus:
		r.Antivirus = value
	case ColIPAddress:
		r.IPAddress = value
	case ColRemarks:
		r.Remarks = value
	}
}

// Values returns the record's values in canonical column order.
func (r AssetRecord) Values() []string {
	vals := make([]string, len(Columns))
	for i, col := range Columns {
		vals[i] = r.Get(col)
	}
	return vals
}

// Row pairs an asset record with a synthetic ID assigned when the record
// enters the session. Selection and editing resolve rows by this ID so two
// structurally equal records remain distinguishable.
type Row struct {
	ID     string
	Record AssetRecord
}

// TaskStatus represents the lifecycle state of a queued file.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusError      TaskStatus = "error"
)

// QueueTask is one file's extraction job. Tasks are identified by ID, but
// admission to the queue is deduplicated by filename.
type QueueTask struct {
	ID           string
	Filename     string
	Content      []byte
	Status       TaskStatus
	ErrorMessage string
	Retries      int
	CreatedAt    time.Time
}

// NotificationKind classifies a notification for display.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
	NotifyInfo    NotificationKind = "info"
)

// Notification is an ephemeral status message. The consumer is responsible
// for dismissing it (the TUI uses a 5 second timer).
type Notification struct {
	Kind    NotificationKind
	Message string
}

// FilterOperator is a comparison applied by one filter rule.
type FilterOperator string

const (
	OpContains   FilterOperator = "contains"
	OpEquals     FilterOperator = "equals"
	OpStartsWith FilterOperator = "startsWith"
	OpEndsWith   FilterOperator = "endsWith"
	OpIsEmpty    FilterOperator = "isEmpty"
	OpIsNotEmpty FilterOperator = "isNotEmpty"
)

// FilterRule is one column predicate. Rules combine as an AND conjunction;
// the ID exists only so individual rules can be removed.
type FilterRule struct {
	ID       string
	Column   string
	Operator FilterOperator
	Value    string
}

// SortDirection is the tri-state column sort toggle.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
	SortNone SortDirection = ""
)

// SortConfig names the sorted column, if any.
type SortConfig struct {
	Key       string
	Direction SortDirection
}

// HistoryEntry is one persisted extraction run.
type HistoryEntry struct {
	ID        string        `json:"id"`
	Filename  string        `json:"filename"`
	Records   []AssetRecord `json:"records"`
	CreatedAt time.Time     `json:"created_at"`
}
