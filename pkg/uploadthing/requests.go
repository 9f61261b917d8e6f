package uploadthing

import "fmt"

// ListFilesOptions paginates a file listing. Zero values are left out of the request.
type ListFilesOptions struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// RenameUpdate renames one file, identified by FileKey or CustomID
type RenameUpdate struct {
	FileKey  string `json:"fileKey,omitempty"`
	CustomID string `json:"customId,omitempty"`
	NewName  string `json:"newName"`
}

// Validate checks that the update identifies a file and names it
func (u RenameUpdate) Validate() error {
	if u.FileKey == "" && u.CustomID == "" {
		return ErrMissingIdentifier
	}
	if u.NewName == "" {
		return fmt.Errorf("uploadthing: missing 'newName' in update")
	}
	return nil
}

// ACLUpdate changes the ACL of one file, identified by FileKey or CustomID
type ACLUpdate struct {
	FileKey  string `json:"fileKey,omitempty"`
	CustomID string `json:"customId,omitempty"`
	ACL      ACL    `json:"acl"`
}

// Validate checks that the update identifies a file and carries a known ACL
func (u ACLUpdate) Validate() error {
	if u.FileKey == "" && u.CustomID == "" {
		return ErrMissingIdentifier
	}
	if u.ACL == "" {
		return fmt.Errorf("%w: missing 'acl' in update", ErrInvalidACL)
	}
	if !u.ACL.Valid() {
		return fmt.Errorf("%w: got %q", ErrInvalidACL, u.ACL)
	}
	return nil
}

type updatesRequest[T any] struct {
	Updates []T `json:"updates"`
}

// deleteFilesBody keys the request by identifier kind: {"fileKeys": [...]} or {"customIds": [...]}
func deleteFilesBody(keys []string, keyType KeyType) (map[string][]string, error) {
	if keys == nil {
		keys = []string{}
	}
	switch keyType {
	case KeyTypeFileKey, "":
		return map[string][]string{"fileKeys": keys}, nil
	case KeyTypeCustomID:
		return map[string][]string{"customIds": keys}, nil
	default:
		return nil, fmt.Errorf("%w: got %q", ErrInvalidKeyType, keyType)
	}
}
