package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stylefit-next/internal/media"
)

type fakeMediaResolver struct {
	resources map[string]*media.Resource
	err       error
	calls     []string
}

func (r *fakeMediaResolver) GetResource(ctx context.Context, publicID string) (*media.Resource, error) {
	r.calls = append(r.calls, publicID)
	if r.err != nil {
		return nil, r.err
	}
	return r.resources[publicID], nil
}

func baseResolveInput(viewer ImageViewer) ResolveImageInput {
	return ResolveImageInput{
		OriginalURL:  "https://cdn.example.com/products/linen-wrap-dress.jpg",
		ProductID:    42,
		TrialEnabled: true,
		Index:        0,
		Viewer:       viewer,
	}
}

func TestImageResolveAnonymousGetsOriginal(t *testing.T) {
	resolver := &fakeMediaResolver{}
	svc := NewImageService(resolver, 60)

	resolved := svc.Resolve(context.Background(), baseResolveInput(ImageViewer{}))
	if resolved.Generated || resolved.URL != "https://cdn.example.com/products/linen-wrap-dress.jpg" {
		t.Fatalf("anonymous viewer should see original: %+v", resolved)
	}
	if len(resolver.calls) != 0 {
		t.Fatalf("anonymous viewer should not hit the media api: %v", resolver.calls)
	}
}

func TestImageResolveIneligibleViewerGetsOriginal(t *testing.T) {
	resolver := &fakeMediaResolver{}
	svc := NewImageService(resolver, 60)

	// 非会员且 AI 未开通
	resolved := svc.Resolve(context.Background(), baseResolveInput(ImageViewer{UserID: 7}))
	if resolved.Generated {
		t.Fatalf("ineligible viewer should see original: %+v", resolved)
	}

	// AI 开通但商品不支持试穿
	input := baseResolveInput(ImageViewer{UserID: 7, AIEnabled: true})
	input.TrialEnabled = false
	resolved = svc.Resolve(context.Background(), input)
	if resolved.Generated {
		t.Fatalf("non-trial product should show original: %+v", resolved)
	}
	if len(resolver.calls) != 0 {
		t.Fatalf("ineligible lookups should not hit the media api: %v", resolver.calls)
	}
}

func TestImageResolvePremiumGetsGeneratedImage(t *testing.T) {
	publicID := media.TryOnPublicID("tryon", 7, 42, 0)
	resolver := &fakeMediaResolver{
		resources: map[string]*media.Resource{
			publicID: {PublicID: publicID, SecureURL: "https://cdn.example.com/tryon/u7/p42/0.jpg"},
		},
	}
	svc := NewImageService(resolver, 60)

	resolved := svc.Resolve(context.Background(), baseResolveInput(ImageViewer{UserID: 7, IsPremium: true}))
	if !resolved.Generated || resolved.URL != "https://cdn.example.com/tryon/u7/p42/0.jpg" {
		t.Fatalf("premium viewer should see generated image: %+v", resolved)
	}
}

func TestImageResolveAIEnabledTrialProduct(t *testing.T) {
	publicID := media.TryOnPublicID("tryon", 9, 42, 0)
	resolver := &fakeMediaResolver{
		resources: map[string]*media.Resource{
			publicID: {PublicID: publicID, SecureURL: "https://cdn.example.com/tryon/u9/p42/0.jpg"},
		},
	}
	svc := NewImageService(resolver, 60)

	resolved := svc.Resolve(context.Background(), baseResolveInput(ImageViewer{UserID: 9, AIEnabled: true}))
	if !resolved.Generated {
		t.Fatalf("ai viewer with trial product should see generated image: %+v", resolved)
	}
}

func TestImageResolveMissingGenerationFallsBack(t *testing.T) {
	resolver := &fakeMediaResolver{}
	svc := NewImageService(resolver, 60)

	resolved := svc.Resolve(context.Background(), baseResolveInput(ImageViewer{UserID: 7, IsPremium: true}))
	if resolved.Generated || resolved.URL != "https://cdn.example.com/products/linen-wrap-dress.jpg" {
		t.Fatalf("missing generation should fall back to original: %+v", resolved)
	}
}

func TestImageResolveLookupFailureDegrades(t *testing.T) {
	resolver := &fakeMediaResolver{err: errors.New("media api down")}
	svc := NewImageService(resolver, 60)

	resolved := svc.Resolve(context.Background(), baseResolveInput(ImageViewer{UserID: 7, IsPremium: true}))
	if resolved.Generated || resolved.URL == "" {
		t.Fatalf("lookup failure should degrade to original: %+v", resolved)
	}
}

func TestImageResolveNilResolver(t *testing.T) {
	svc := NewImageService(nil, 60)
	resolved := svc.Resolve(context.Background(), baseResolveInput(ImageViewer{UserID: 7, IsPremium: true}))
	if resolved.Generated {
		t.Fatalf("nil resolver should serve original: %+v", resolved)
	}
}
