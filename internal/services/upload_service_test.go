package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"dinerhub/internal/common"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type UploadServiceTestSuite struct {
	suite.Suite
	store   *MockObjectStore
	service UploadService
}

func (suite *UploadServiceTestSuite) SetupTest() {
	suite.store = &MockObjectStore{}
	suite.store.Test(suite.T())
	suite.service = NewUploadService(suite.store, "http://cdn.local/dinerhub/", discardLogger())
}

func (suite *UploadServiceTestSuite) TearDownTest() {
	suite.store.AssertExpectations(suite.T())
}

func TestUploadServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UploadServiceTestSuite))
}

func (suite *UploadServiceTestSuite) TestUploadImage_Success() {
	ctx := context.Background()
	body := bytes.NewReader([]byte("fake-png"))
	suite.store.On("PutObject", ctx, mock.MatchedBy(func(name string) bool {
		return strings.HasPrefix(name, "dishes/") && strings.HasSuffix(name, ".png")
	}), body, int64(8), "image/png").Return(nil)

	url, err := suite.service.UploadImage(ctx, "dishes", "image/png", body, 8)
	suite.NoError(err)
	suite.True(strings.HasPrefix(url, "http://cdn.local/dinerhub/dishes/"), url)
}

func (suite *UploadServiceTestSuite) TestUploadImage_DefaultsToMisc() {
	ctx := context.Background()
	body := bytes.NewReader([]byte("gif"))
	suite.store.On("PutObject", ctx, mock.MatchedBy(func(name string) bool {
		return strings.HasPrefix(name, "misc/") && strings.HasSuffix(name, ".gif")
	}), body, int64(3), "image/gif").Return(nil)

	_, err := suite.service.UploadImage(ctx, "", "IMAGE/GIF", body, 3)
	suite.NoError(err)
}

func (suite *UploadServiceTestSuite) TestUploadImage_Rejects() {
	ctx := context.Background()
	tests := []struct {
		name        string
		folder      string
		contentType string
		size        int64
	}{
		{"unknown folder", "../etc", "image/png", 10},
		{"not an image", "dishes", "application/pdf", 10},
		{"empty", "dishes", "image/png", 0},
		{"too large", "dishes", "image/jpeg", MaxUploadSize + 1},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := suite.service.UploadImage(ctx, tt.folder, tt.contentType, bytes.NewReader(nil), tt.size)
			suite.Equal(common.KindValidation, common.KindOf(err))
		})
	}
}

func (suite *UploadServiceTestSuite) TestUploadImage_StorageError() {
	ctx := context.Background()
	suite.store.On("PutObject", ctx, mock.Anything, mock.Anything, int64(4), "image/webp").Return(errors.New("bucket gone"))

	_, err := suite.service.UploadImage(ctx, "avatars", "image/webp", bytes.NewReader([]byte("webp")), 4)
	suite.ErrorContains(err, "bucket gone")
}

func (suite *UploadServiceTestSuite) TestDelete() {
	ctx := context.Background()
	suite.store.On("RemoveObject", ctx, "dishes/abc.png").Return(nil)

	suite.NoError(suite.service.Delete(ctx, "http://cdn.local/dinerhub/dishes/abc.png"))

	err := suite.service.Delete(ctx, "http://elsewhere/dishes/abc.png")
	suite.Equal(common.KindValidation, common.KindOf(err))
}
