package blob

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// azureAPI is the part of *azblob.Client the bucket uses.
type azureAPI interface {
	DownloadStream(ctx context.Context, containerName, blobName string, o *azblob.DownloadStreamOptions) (azblob.DownloadStreamResponse, error)
	UploadStream(ctx context.Context, containerName, blobName string, body io.Reader, o *azblob.UploadStreamOptions) (azblob.UploadStreamResponse, error)
}

type azureBucket struct {
	mu        sync.Mutex
	newClient func(account string) (azureAPI, error)
	clients   map[string]azureAPI
}

// NewAzureBucket authenticates with the default Azure credential chain
// (environment, managed identity, Azure CLI). One client is kept per storage account.
func NewAzureBucket() (Bucket, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}
	return newAzureBucket(func(account string) (azureAPI, error) {
		return newAzureClient(account, cred)
	}), nil
}

func newAzureClient(account string, cred azcore.TokenCredential) (azureAPI, error) {
	return azblob.NewClient(fmt.Sprintf("https://%s.blob.core.windows.net/", account), cred, nil)
}

func newAzureBucket(newClient func(account string) (azureAPI, error)) Bucket {
	return &azureBucket{newClient: newClient, clients: make(map[string]azureAPI)}
}

func (b *azureBucket) client(account string) (azureAPI, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if c, ok := b.clients[account]; ok {
		return c, nil
	}
	c, err := b.newClient(account)
	if err != nil {
		return nil, err
	}
	b.clients[account] = c
	return c, nil
}

func splitBlob(loc Location) (string, string, error) {
	container, blobName, ok := strings.Cut(loc.Path, "/")
	if !ok || container == "" || blobName == "" {
		return "", "", fmt.Errorf("azure location %s must be az://account/container/blob", loc)
	}
	return container, blobName, nil
}

func (b *azureBucket) Open(ctx context.Context, loc Location) (io.ReadCloser, error) {
	container, blobName, err := splitBlob(loc)
	if err != nil {
		return nil, err
	}
	c, err := b.client(loc.Host)
	if err != nil {
		return nil, err
	}
	resp, err := c.DownloadStream(ctx, container, blobName, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (b *azureBucket) Put(ctx context.Context, loc Location, r io.Reader) error {
	container, blobName, err := splitBlob(loc)
	if err != nil {
		return err
	}
	c, err := b.client(loc.Host)
	if err != nil {
		return err
	}
	_, err = c.UploadStream(ctx, container, blobName, r, nil)
	return err
}
