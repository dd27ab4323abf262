package test

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"google.golang.org/api/idtoken"
	"gorm.io/gorm"

	"lookbookapi/models"
	"lookbookapi/services"
)

func JsonString(model interface{}) string {
	bytes, _ := json.Marshal(model)
	return string(bytes)
}

func NewJSONRequest(method string, target string, param interface{}) *http.Request {

	req := httptest.NewRequest(method, target, strings.NewReader(JsonString(param)))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	return req
}

func GenerateUserToken(userPk string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userPk,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 72)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	t, err := token.SignedString([]byte(os.Getenv("JWT_SECRET")))
	if err != nil {
		log.Fatalf("Error when signing user token for %s. Error %s ", userPk, err)
	}
	return t
}

func NewJSONAuthRequest(method string, target string, userPk string, param interface{}) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(JsonString(param)))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	token := GenerateUserToken(userPk)
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", token))
	return req
}

func NewJSONAuthRequestRaw(method string, target string, userPk string, json string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(json))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	token := GenerateUserToken(userPk)
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", token))
	return req
}

func NewJSONAuthRequestCustomAuth(method string, target string, authorization string, param interface{}) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(JsonString(param)))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Authorization", authorization)
	return req
}

func NewRefString(data string) *string {
	return &data
}

func FakeUser(db *gorm.DB) *models.UserAccount {
	user := &models.UserAccount{
		Name:      "OurName",
		Email:     fmt.Sprintf("email%d@example.com", time.Now().UnixNano()),
		GoogleID:  "12232",
		Platform:  models.PlatformIOS,
		LastIp:    "123.122.122.122",
		Status:    "FINISHED_AUTH",
		AvatarURL: "pictureurl",
	}
	db.Create(&user)

	tokenDb := models.UserPushToken{
		UserAccountID: user.ID,
		Platform:      "android",
		Token:         "cX-UZ3zwQEiPt-2GJkG2gA:APA91bGqRflaGrJrnynhRwZ442HdgUjVcO7mWMFnx6IwAdJ9RRKopvSP4QU7hbvTmk1XAp8XGvtHZLvo5JmOPTVKBbGqqvhfbZWKlXA9csEjx1hgpNvrWepU",
		Active:        true,
	}
	db.Save(&tokenDb)
	db.First(&user, user.ID)

	return user
}

// FakeAnalyzedLook creates an analyzed look with the given analyzer items.
func FakeAnalyzedLook(db *gorm.DB, owner *models.UserAccount, name string, items []map[string]interface{}) *models.Look {
	analysis := models.LookAnalysis{
		Items:   items,
		Comment: "Nice casual pairing",
		Tags:    []string{"casual"},
	}
	analysisBytes, _ := json.Marshal(analysis)
	analysisJSON := string(analysisBytes)
	look := &models.Look{
		Name:         name,
		OwnerID:      owner.ID,
		ImageURL:     NewRefString(fmt.Sprintf("looks/%s.jpg", name)),
		Status:       "analyzed",
		AnalysisJSON: &analysisJSON,
	}
	db.Create(&look)
	return look
}

type GoogleServiceMock struct{}

func (gsm GoogleServiceMock) ValidateIdToken(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error) {

	return &idtoken.Payload{Issuer: "Issue", Audience: "AAA", Expires: 119919191919, IssuedAt: 12312321321, Subject: "fake@example.com", Claims: map[string]interface{}{
		"email":   "fake@example.com",
		"picture": "pictureurl",
		"name":    "Fake Name",
		"sub":     "123googleid",
	}}, nil

}

func (gsm GoogleServiceMock) GetUserSubscriptionStatus(ctx context.Context, appUserId string) ([]byte, error) {
	data := `
	{
		"request_date": "2024-05-11T06:50:56Z",
		"subscriber": {
		  "entitlements": {
			"pro": {
			  "expires_date": "2029-05-11T06:51:15Z",
			  "product_identifier": "prostandard",
			  "purchase_date": "2024-05-11T06:49:05Z"
			}
		  }
		}
	  }
	  `

	return []byte(data), nil
}

type AWSProviderMock struct {
	MockUrl string
}

func (awsService AWSProviderMock) InitPresignClient(ctx context.Context) error {
	return nil
}

func (awsService AWSProviderMock) PresignLink(ctx context.Context, bucketName string, fileName string) (string, error) {

	return fmt.Sprintf("https://fakebucketurl.com/%s", fileName), nil
}

func (awsService AWSProviderMock) GetPresignedR2FileReadURL(ctx context.Context, bucketName, fileKey string) (string, error) {
	return awsService.MockUrl, nil
}

type URLCacheMock struct {
	MockUrl string
}

func (cache URLCacheMock) GetReadURL(ctx context.Context, objectKey string) (string, error) {
	return cache.MockUrl, nil
}

// MockStyleGenerator returns well-formed payloads for both generations.
type MockStyleGenerator struct{}

func (m MockStyleGenerator) GenerateStyleReport(ctx context.Context, wardrobePayload string, modelName services.LLMModelName) (*services.LLMResponse, error) {
	return &services.LLMResponse{Response: `{
		"styleProfile": {
			"dominant_silhouettes": "relaxed straight fits",
			"color_palette": "navy, white, beige",
			"formality_range": "casual to smart casual",
			"style_keywords": ["minimal", "clean"],
			"one_liner": "Effortless minimalist with a navy anchor",
			"pairing_tendencies": ["sneakers with everything"]
		},
		"report": {
			"headline": "Your Minimal Navy Formula",
			"sections": [
				{"title": "Color Story", "body": "Navy and white dominate your looks."},
				{"title": "Go-To Pairing", "body": "Straight jeans with white sneakers."}
			]
		}
	}`,
		InputTokenCount:  10,
		TotalTokenCount:  23,
		OutputTokenCount: 13,
	}, nil
}

func (m MockStyleGenerator) GenerateComprehensiveProfile(ctx context.Context, wardrobePayload string, modelName services.LLMModelName) (*services.LLMResponse, error) {
	return &services.LLMResponse{Response: "```json\n" + `{
		"elements": {
			"colour_palette": {"label": "Colour Palette", "sub_elements": {"core": "navy, white", "accent": "camel"}},
			"silhouette_and_fit": {"label": "Silhouette & Fit", "sub_elements": {"overall": "relaxed straight"}},
			"footwear_profile": {"sub_elements": {"default": "white leather sneakers"}}
		},
		"synthesis": {
			"style_descriptor_short": "Relaxed minimalist",
			"style_keywords": ["minimal", "navy", "clean"],
			"one_line_takeaway": "You dress around a navy core with crisp basics.",
			"dominant_colors": ["navy", "white"],
			"dominant_silhouettes": ["straight", "relaxed"]
		},
		"style_dna": {
			"archetype_name": "The Quiet Classic",
			"keywords": ["timeless", "understated"]
		},
		"ideas_for_you": {
			"outfit_ideas": ["navy crewneck with white jeans"],
			"shopping_ideas": ["camel overshirt"]
		}
	}` + "\n```",
		InputTokenCount:  20,
		TotalTokenCount:  45,
		OutputTokenCount: 25,
	}, nil
}

// FailingStyleGenerator errors on every call.
type FailingStyleGenerator struct{}

func (m FailingStyleGenerator) GenerateStyleReport(ctx context.Context, wardrobePayload string, modelName services.LLMModelName) (*services.LLMResponse, error) {
	return nil, fmt.Errorf("model unavailable")
}

func (m FailingStyleGenerator) GenerateComprehensiveProfile(ctx context.Context, wardrobePayload string, modelName services.LLMModelName) (*services.LLMResponse, error) {
	return nil, fmt.Errorf("model unavailable")
}

// GarbageStyleGenerator returns non-JSON text.
type GarbageStyleGenerator struct{}

func (m GarbageStyleGenerator) GenerateStyleReport(ctx context.Context, wardrobePayload string, modelName services.LLMModelName) (*services.LLMResponse, error) {
	return &services.LLMResponse{Response: "sorry, I cannot help with that"}, nil
}

func (m GarbageStyleGenerator) GenerateComprehensiveProfile(ctx context.Context, wardrobePayload string, modelName services.LLMModelName) (*services.LLMResponse, error) {
	return &services.LLMResponse{Response: "sorry, I cannot help with that"}, nil
}
