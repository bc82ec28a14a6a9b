package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/errs"
	"storefront/models"
	"storefront/store"
	"storefront/validate"
)

// ReviewService 同一使用者可對同一商品留下多則評論
type ReviewService struct {
	store store.Store
}

func (s *ReviewService) Create(ctx context.Context, caller models.Identity, productID primitive.ObjectID, rating int, comment string) (*models.Review, error) {
	review := &models.Review{User: caller.ID, Product: productID, Rating: rating, Comment: comment}
	if err := validate.Struct(review); err != nil {
		return nil, err
	}
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, storeErr(err, "商品")
	}
	if err := s.store.CreateReview(ctx, review); err != nil {
		return nil, errs.Internal(err)
	}

	//將評論加入商品的評論列表，失敗則刪除剛建立的評論
	if err := s.store.AddProductReview(ctx, productID, review.ID); err != nil {
		if delErr := s.store.DeleteReview(context.WithoutCancel(ctx), review.ID); delErr != nil {
			warn(ctx, "review_compensate", delErr)
		}
		return nil, storeErr(err, "商品")
	}
	return review, nil
}

func (s *ReviewService) Get(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	review, err := s.store.GetReview(ctx, id)
	if err != nil {
		return nil, storeErr(err, "評論")
	}
	return review, nil
}

func (s *ReviewService) List(ctx context.Context, productID *primitive.ObjectID) ([]models.Review, error) {
	reviews, err := s.store.ListReviews(ctx, store.ReviewFilter{Product: productID})
	if err != nil {
		return nil, errs.Internal(err)
	}
	return reviews, nil
}

func (s *ReviewService) Update(ctx context.Context, caller models.Identity, id primitive.ObjectID, patch store.ReviewPatch) (*models.Review, error) {
	if patch.Rating != nil {
		if err := validate.Var("rating", *patch.Rating, "min=1,max=5"); err != nil {
			return nil, err
		}
	}
	if patch.Comment != nil {
		if err := validate.Var("comment", *patch.Comment, "max=2000"); err != nil {
			return nil, err
		}
	}

	review, err := s.store.GetReview(ctx, id)
	if err != nil {
		return nil, storeErr(err, "評論")
	}
	if err := authorize(caller, review.User); err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateReview(ctx, id, patch)
	if err != nil {
		return nil, storeErr(err, "評論")
	}
	return updated, nil
}

func (s *ReviewService) Delete(ctx context.Context, caller models.Identity, id primitive.ObjectID) error {
	review, err := s.store.GetReview(ctx, id)
	if err != nil {
		return storeErr(err, "評論")
	}
	if err := authorize(caller, review.User); err != nil {
		return err
	}
	if err := s.store.DeleteReview(ctx, id); err != nil {
		return storeErr(err, "評論")
	}
	// 商品可能已被刪除
	if err := s.store.RemoveProductReview(ctx, review.Product, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		warn(ctx, "review_unlink", err)
	}
	return nil
}
