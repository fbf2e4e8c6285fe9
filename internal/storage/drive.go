package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

// DriveClient archives attachments into a Google Drive folder tree.
type DriveClient struct {
	srv          *drive.Service
	rootPath     string
	mu           sync.Mutex
	folderByPath map[string]string
}

func NewDriveClient(ctx context.Context, credentialsJSON, rootPath string) (*DriveClient, error) {
	if strings.TrimSpace(credentialsJSON) == "" {
		return nil, fmt.Errorf("google credentials must be provided")
	}

	jwt, err := google.JWTConfigFromJSON([]byte(credentialsJSON), drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account credentials: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Drive client: %w", err)
	}

	return &DriveClient{
		srv:          srv,
		rootPath:     rootPath,
		folderByPath: make(map[string]string),
	}, nil
}

// UploadObject creates the file named by the last key segment inside the
// folders named by the others, creating missing folders on the way.
func (c *DriveClient) UploadObject(ctx context.Context, key string, data []byte) error {
	dir, name := path.Split(key)
	folderID, err := c.ensureFolder(ctx, folderSegments(c.rootPath, dir))
	if err != nil {
		return err
	}

	_, err = c.srv.Files.Create(&drive.File{
		Name:     name,
		Parents:  []string{folderID},
		MimeType: xlsxContentType,
	}).Media(bytes.NewReader(data)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("drive upload failed: %w", err)
	}
	return nil
}

func (c *DriveClient) ensureFolder(ctx context.Context, segments []string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	currentID := "root"
	walked := ""
	for _, folder := range segments {
		walked = path.Join(walked, folder)
		if id, ok := c.folderByPath[walked]; ok {
			currentID = id
			continue
		}

		result, err := c.srv.Files.List().
			Q(fmt.Sprintf("'%s' in parents and name='%s' and mimeType='%s' and trashed=false",
				currentID, escapeQuery(folder), folderMimeType)).
			Fields("files(id, name)").
			Context(ctx).
			Do()
		if err != nil {
			return "", fmt.Errorf("error finding folder %s: %w", folder, err)
		}

		if len(result.Files) > 0 {
			currentID = result.Files[0].Id
		} else {
			created, err := c.srv.Files.Create(&drive.File{
				Name:     folder,
				MimeType: folderMimeType,
				Parents:  []string{currentID},
			}).Fields("id").Context(ctx).Do()
			if err != nil {
				return "", fmt.Errorf("error creating folder %s: %w", folder, err)
			}
			currentID = created.Id
		}
		c.folderByPath[walked] = currentID
	}
	return currentID, nil
}

func folderSegments(root, dir string) []string {
	var out []string
	for _, part := range strings.Split(root+"/"+dir, "/") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

var _ ObjectStorage = (*DriveClient)(nil)
