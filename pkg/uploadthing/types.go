package uploadthing

import (
	"github.com/tendant/uploadthing-go/pkg/uploadthing/presigned"
)

// ACL is the access setting of a stored file
type ACL string

const (
	ACLPublicRead ACL = presigned.ACLPublicRead
	ACLPrivate    ACL = presigned.ACLPrivate
)

// Valid reports whether a is one of the values the service accepts
func (a ACL) Valid() bool {
	return a == ACLPublicRead || a == ACLPrivate
}

// ContentDisposition tells browsers how to present the file
type ContentDisposition string

const (
	DispositionInline     ContentDisposition = presigned.DispositionInline
	DispositionAttachment ContentDisposition = presigned.DispositionAttachment
)

// KeyType selects how files are identified in delete requests
type KeyType string

const (
	KeyTypeFileKey  KeyType = "file_key"
	KeyTypeCustomID KeyType = "custom_id"
)

// FileData is one entry of a file listing
type FileData struct {
	ID         string `json:"id"`
	CustomID   string `json:"custom_id,omitempty"`
	Key        string `json:"key"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Size       int64  `json:"size"`
	UploadedAt int64  `json:"uploaded_at"`
}

// ListFilesResponse is the reply of /v6/listFiles
type ListFilesResponse struct {
	HasMore bool       `json:"has_more"`
	Files   []FileData `json:"files"`
}

// DeleteFilesResponse is the reply of /v6/deleteFiles
type DeleteFilesResponse struct {
	Success      bool `json:"success"`
	DeletedCount int  `json:"deleted_count"`
}

// RenameFilesResponse is the reply of /v6/renameFiles
type RenameFilesResponse struct {
	Success      bool `json:"success"`
	RenamedCount int  `json:"renamed_count"`
}

// UpdateACLResponse is the reply of /v6/updateACL
type UpdateACLResponse struct {
	Success      bool `json:"success"`
	UpdatedCount int  `json:"updated_count"`
}

// UsageInfo is the reply of /v6/getUsageInfo
type UsageInfo struct {
	TotalBytes    int64 `json:"total_bytes"`
	AppTotalBytes int64 `json:"app_total_bytes"`
	FilesUploaded int64 `json:"files_uploaded"`
	LimitBytes    int64 `json:"limit_bytes"`
}

// UploadResult describes one uploaded file
type UploadResult struct {
	FileKey    string         `json:"file_key"`
	Name       string         `json:"name"`
	Size       int64          `json:"size"`
	Type       string         `json:"type"`
	URL        string         `json:"url"`
	UfsURL     string         `json:"ufs_url"`
	AppURL     string         `json:"app_url"`
	FileHash   string         `json:"file_hash"`
	ServerData map[string]any `json:"server_data,omitempty"`
	ACL        ACL            `json:"acl,omitempty"`
}

// ingestResponse is what the ingest endpoint returns for a stored file
type ingestResponse struct {
	URL        string         `json:"url"`
	UfsURL     string         `json:"ufs_url"`
	AppURL     string         `json:"app_url"`
	FileHash   string         `json:"file_hash"`
	ServerData map[string]any `json:"server_data"`
	ACL        ACL            `json:"acl"`
}
