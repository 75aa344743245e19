package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/apperror"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

const deletedUserEmail = "deleted@foodgram.invalid"

// Subscription is a followed author with a cut of their recipes
type Subscription struct {
	Author  models.User
	Recipes []models.Recipe
}

// UserService handles accounts and subscriptions
type UserService struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewUserService(db *gorm.DB, log logrus.FieldLogger) *UserService {
	return &UserService{db: db, log: log}
}

func (s *UserService) subscribedTo(viewer interface{}) *gorm.DB {
	return s.db.Session(&gorm.Session{NewDB: true}).Table("subscriptions").Select("1").
		Where("subscriptions.followee_id = users.id AND subscriptions.follower_id = ?", viewer)
}

func viewerParam(viewer *uuid.UUID) interface{} {
	if viewer == nil {
		return nil
	}
	return *viewer
}

// List returns a page of users annotated with is_subscribed for the viewer.
// The sentinel account is hidden.
func (s *UserService) List(ctx context.Context, viewer *uuid.UUID, page types.Pagination) ([]models.User, int64, error) {
	visible := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.User{}).Where("users.username <> ?", models.DeletedUsername)
	}

	var count int64
	if err := visible().Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}

	var users []models.User
	err := visible().Select("users.*, EXISTS (?) AS is_subscribed", s.subscribedTo(viewerParam(viewer))).
		Order("users.username").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	return users, count, nil
}

func (s *UserService) Get(ctx context.Context, viewer *uuid.UUID, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Select("users.*, EXISTS (?) AS is_subscribed", s.subscribedTo(viewerParam(viewer))).
		Where("users.id = ?", id).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &user, nil
}

// Subscriptions lists the authors the viewer follows with their recipe
// counts and at most recipesLimit recipes each (all when recipesLimit < 0).
func (s *UserService) Subscriptions(ctx context.Context, viewer uuid.UUID, page types.Pagination, recipesLimit int) ([]Subscription, int64, error) {
	db := s.db.WithContext(ctx)
	followed := func() *gorm.DB {
		return db.Model(&models.User{}).
			Joins("JOIN subscriptions ON subscriptions.followee_id = users.id").
			Where("subscriptions.follower_id = ?", viewer)
	}

	var count int64
	if err := followed().Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("counting subscriptions: %w", err)
	}

	recipesCount := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.Recipe{}).Select("COUNT(*)").Where("recipes.author_id = users.id")

	var authors []models.User
	err := followed().
		Select("users.*, TRUE AS is_subscribed, (?) AS recipes_count", recipesCount).
		Order("subscriptions.created_at").
		Order("users.username").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&authors).Error
	if err != nil {
		return nil, 0, fmt.Errorf("listing subscriptions: %w", err)
	}

	byAuthor, err := s.recipesOf(ctx, authors, recipesLimit)
	if err != nil {
		return nil, 0, err
	}

	subs := make([]Subscription, 0, len(authors))
	for _, a := range authors {
		subs = append(subs, Subscription{Author: a, Recipes: byAuthor[a.ID]})
	}
	return subs, count, nil
}

// recipesOf loads the first limit recipes (by name) of each author in one
// query using a window function.
func (s *UserService) recipesOf(ctx context.Context, authors []models.User, limit int) (map[uuid.UUID][]models.Recipe, error) {
	out := make(map[uuid.UUID][]models.Recipe, len(authors))
	if len(authors) == 0 || limit == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}

	db := s.db.WithContext(ctx)
	ranked := db.Session(&gorm.Session{NewDB: true}).Model(&models.Recipe{}).
		Select("recipes.*, ROW_NUMBER() OVER (PARTITION BY recipes.author_id ORDER BY recipes.name, recipes.created_at) AS rn").
		Where("recipes.author_id IN ?", ids)

	q := db.Table("(?) AS recipes", ranked).Select("recipes.*")
	if limit > 0 {
		q = q.Where("recipes.rn <= ?", limit)
	}

	var recipes []models.Recipe
	if err := q.Order("recipes.author_id").Order("recipes.rn").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("loading subscription recipes: %w", err)
	}
	for _, r := range recipes {
		out[r.AuthorID] = append(out[r.AuthorID], r)
	}
	return out, nil
}

// Subscribe makes follower follow followee and returns the followee.
func (s *UserService) Subscribe(ctx context.Context, follower, followee uuid.UUID) (*models.User, error) {
	if follower == followee {
		return nil, apperror.Conflict("you cannot subscribe to yourself")
	}

	var author models.User
	err := s.db.WithContext(ctx).Take(&author, "id = ?", followee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user", followee.String())
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	err = s.db.WithContext(ctx).Create(&models.Subscription{FollowerID: follower, FolloweeID: followee}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperror.Conflict("you are already subscribed to this user")
	}
	if err != nil {
		return nil, fmt.Errorf("creating subscription: %w", err)
	}

	author.IsSubscribed = true
	return &author, nil
}

func (s *UserService) Unsubscribe(ctx context.Context, follower, followee uuid.UUID) error {
	var exists int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", followee).Count(&exists).Error; err != nil {
		return fmt.Errorf("getting user: %w", err)
	}
	if exists == 0 {
		return apperror.NotFound("user", followee.String())
	}

	res := s.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", follower, followee).
		Delete(&models.Subscription{})
	if res.Error != nil {
		return fmt.Errorf("deleting subscription: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.Conflict("you are not subscribed to this user")
	}
	return nil
}

// RecipesCount returns how many recipes the author has.
func (s *UserService) RecipesCount(ctx context.Context, authorID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Recipe{}).Where("author_id = ?", authorID).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("counting recipes: %w", err)
	}
	return n, nil
}

// AuthorWithRecipes shapes a single author the way Subscriptions does.
func (s *UserService) AuthorWithRecipes(ctx context.Context, author *models.User, recipesLimit int) (*Subscription, error) {
	count, err := s.RecipesCount(ctx, author.ID)
	if err != nil {
		return nil, err
	}
	byAuthor, err := s.recipesOf(ctx, []models.User{*author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	a := *author
	a.RecipesCount = count
	return &Subscription{Author: a, Recipes: byAuthor[a.ID]}, nil
}

// CreateUser registers an account with a bcrypt password hash.
func (s *UserService) CreateUser(ctx context.Context, email, username, firstName, lastName, password string) (*models.User, error) {
	fields := apperror.FieldErrors{}
	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.TrimSpace(username)
	if email == "" {
		fields.Add("email", "this field is required")
	}
	if username == "" {
		fields.Add("username", "this field is required")
	} else if username == models.DeletedUsername {
		fields.Add("username", "this username is reserved")
	}
	if len(password) < 8 {
		fields.Add("password", "password must be at least 8 characters")
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := models.User{
		Email:        email,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: string(hash),
	}
	err = s.db.WithContext(ctx).Create(&user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperror.Conflict("a user with this email or username already exists")
	}
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return &user, nil
}

// FindByLogin returns the user with the given email or username.
func (s *UserService) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ? OR username = ?", strings.ToLower(login), login).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user", login)
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &user, nil
}

// sentinel returns the placeholder account, creating it on first use.
func sentinel(tx *gorm.DB) (*models.User, error) {
	user := models.User{
		Username:     models.DeletedUsername,
		Email:        deletedUserEmail,
		PasswordHash: "!",
	}
	err := tx.Where(models.User{Username: models.DeletedUsername}).
		Attrs(user).
		FirstOrCreate(&user).Error
	if err != nil {
		return nil, fmt.Errorf("getting deleted user: %w", err)
	}
	return &user, nil
}

// Delete removes an account. Its recipes are reassigned to the sentinel user;
// its favorites, shopping list and subscriptions go with it.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.Take(&user, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("user", id.String())
		}
		if err != nil {
			return fmt.Errorf("getting user: %w", err)
		}
		if user.Username == models.DeletedUsername {
			return apperror.Forbidden("the deleted user placeholder cannot be removed")
		}

		placeholder, err := sentinel(tx)
		if err != nil {
			return err
		}

		if err := tx.Model(&models.Recipe{}).Where("author_id = ?", id).
			Update("author_id", placeholder.ID).Error; err != nil {
			return fmt.Errorf("reassigning recipes: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return fmt.Errorf("deleting favorites: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.ShoppingListEntry{}).Error; err != nil {
			return fmt.Errorf("deleting shopping list: %w", err)
		}
		if err := tx.Where("follower_id = ? OR followee_id = ?", id, id).Delete(&models.Subscription{}).Error; err != nil {
			return fmt.Errorf("deleting subscriptions: %w", err)
		}
		if err := tx.Delete(&user).Error; err != nil {
			return fmt.Errorf("deleting user: %w", err)
		}

		s.log.WithFields(logrus.Fields{"user_id": id, "username": user.Username}).Info("user deleted")
		return nil
	})
}
