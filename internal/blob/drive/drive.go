package drive

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"

	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Store saves payment screenshots into one Drive folder and makes each
// file viewable by anyone with the link.
type Store struct {
	srv        *drivev3.Service
	folderName string

	// folder ID is resolved lazily; guarded so concurrent uploads
	// cannot both decide the folder is absent and create duplicates
	mu       sync.Mutex
	folderID string
}

func New(serviceAccountJSONPath, folderName string) (*Store, error) {
	if _, err := os.Stat(serviceAccountJSONPath); err != nil {
		return nil, fmt.Errorf("service account json: %w", err)
	}
	ctx := context.Background()
	srv, err := drivev3.NewService(ctx,
		option.WithCredentialsFile(serviceAccountJSONPath),
		option.WithScopes(drivev3.DriveFileScope),
	)
	if err != nil {
		return nil, err
	}
	return &Store{srv: srv, folderName: folderName}, nil
}

func (s *Store) Name() string { return "drive" }

// ensureFolder finds the screenshots folder, creating it on first use.
func (s *Store) ensureFolder(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.folderID != "" {
		return s.folderID, nil
	}

	query := fmt.Sprintf(
		"mimeType='application/vnd.google-apps.folder' and name='%s' and trashed=false",
		s.folderName,
	)
	list, err := s.srv.Files.List().Q(query).Fields("files(id)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("find folder: %w", err)
	}
	if len(list.Files) > 0 {
		s.folderID = list.Files[0].Id
		return s.folderID, nil
	}

	folder, err := s.srv.Files.Create(&drivev3.File{
		Name:     s.folderName,
		MimeType: "application/vnd.google-apps.folder",
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}
	s.folderID = folder.Id
	return s.folderID, nil
}

// Save uploads the image and returns its view URL.
func (s *Store) Save(ctx context.Context, filename string, data []byte) (string, error) {
	folderID, err := s.ensureFolder(ctx)
	if err != nil {
		return "", err
	}

	file, err := s.srv.Files.Create(&drivev3.File{
		Name:    filename,
		Parents: []string{folderID},
	}).
		Media(bytes.NewReader(data)).
		Fields("id, webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("upload screenshot: %w", err)
	}

	_, err = s.srv.Permissions.Create(file.Id, &drivev3.Permission{
		Role: "reader",
		Type: "anyone",
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("share screenshot: %w", err)
	}

	if file.WebViewLink != "" {
		return file.WebViewLink, nil
	}
	return "https://drive.google.com/file/d/" + file.Id + "/view", nil
}
