package immich

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/photo-migrate/internal/executor"
)

type faceAssignUpdate struct {
	PersonID string `json:"personId"`
}

// AssignFace implements executor.Client.
func (c *Client) AssignFace(ctx context.Context, faceID, personID string) error {
	_, err := doPutJSON[faceAssignUpdate](ctx, c, "faces/"+faceID, faceAssignUpdate{PersonID: personID})
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.NotFound() {
			return executor.NewClientError(executor.ErrNotFound, "face %s no longer exists", faceID)
		}
		return fmt.Errorf("assigning face %s to person %s: %w", faceID, personID, err)
	}
	return nil
}

type faceCreateRequest struct {
	AssetID    string  `json:"assetId"`
	PersonID   string  `json:"personId"`
	X          float64 `json:"imageX"`
	Y          float64 `json:"imageY"`
	Width      float64 `json:"imageWidth"`
	Height     float64 `json:"imageHeight"`
	SourceW    int     `json:"sourceImageWidth"`
	SourceH    int     `json:"sourceImageHeight"`
}

type faceCreated struct {
	ID string `json:"id"`
}

// CreateFace implements executor.Client. item carries pixel-space
// coordinates relative to the asset's own dimensions.
func (c *Client) CreateFace(ctx context.Context, personID string, item executor.CreateFaceItem) error {
	req := faceCreateRequest{
		AssetID:  item.AssetID,
		PersonID: personID,
		X:        item.X,
		Y:        item.Y,
		Width:    item.Width,
		Height:   item.Height,
		SourceW:  item.ImageWidth,
		SourceH:  item.ImageHeight,
	}
	_, err := doPostJSON[faceCreated](ctx, c, "faces", req)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.NotFound() {
			return executor.NewClientError(executor.ErrNotFound, "asset %s no longer exists", item.AssetID)
		}
		return fmt.Errorf("creating face on asset %s: %w", item.AssetID, err)
	}
	return nil
}
