package services

import (
	"context"
	"fmt"
	"karmafeed/internal/models"
	"math/rand"

	log "github.com/sirupsen/logrus"
)

// SeedSummary 记录演示数据的创建数量
type SeedSummary struct {
	Users    int
	Posts    int
	Comments int
	Likes    int
	Skipped  bool
}

// SeedDemo 生成演示数据：5 个用户、10 个帖子，每帖 3 条评论、每条评论 2 条回复。
// 所有写入都走正常的服务路径，回复积分由评论服务照常记录。已有帖子时跳过。
func SeedDemo(ctx context.Context, svc *Services, rng *rand.Rand) (*SeedSummary, error) {
	summary := &SeedSummary{}

	existing, err := svc.Posts.List(ctx, ListPostsInput{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		log.Info("Posts already seeded, skipping")
		summary.Skipped = true
		return summary, nil
	}

	users := make([]*models.User, 0, 5)
	for i := 1; i <= 5; i++ {
		user, err := svc.Users.Ensure(ctx, Identity{Username: fmt.Sprintf("user%d", i)})
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	summary.Users = len(users)
	pick := func() *models.User { return users[rng.Intn(len(users))] }

	posts := make([]*models.Post, 0, 10)
	for i := 1; i <= 10; i++ {
		author := pick()
		// 前 5 个帖子归 user1，方便演示点赞
		if i <= 5 {
			author = users[0]
		}
		post, err := svc.Posts.Create(ctx, author, fmt.Sprintf("This is post number %d. It's a great day for community building!", i))
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	summary.Posts = len(posts)

	var user2Comments []uint
	for _, post := range posts {
		for i := 1; i <= 3; i++ {
			author := pick()
			comment, err := svc.Comments.Create(ctx, author, CreateCommentInput{
				PostID: post.ID,
				Text:   fmt.Sprintf("Comment %d on post %d", i, post.ID),
			})
			if err != nil {
				return nil, err
			}
			summary.Comments++
			if author.ID == users[1].ID {
				user2Comments = append(user2Comments, comment.ID)
			}

			for j := 1; j <= 2; j++ {
				parentID := comment.ID
				if _, err := svc.Comments.Create(ctx, pick(), CreateCommentInput{
					PostID:   post.ID,
					ParentID: &parentID,
					Text:     fmt.Sprintf("Reply %d to comment %d", j, comment.ID),
				}); err != nil {
					return nil, err
				}
				summary.Comments++
			}
		}
	}

	for _, post := range posts[:5] {
		for _, u := range users[1:] {
			if _, err := svc.Reactions.Toggle(ctx, u, models.TargetPost, post.ID); err != nil {
				return nil, err
			}
			summary.Likes++
		}
	}
	for _, commentID := range user2Comments {
		for _, u := range users {
			if u.ID == users[1].ID {
				continue
			}
			if _, err := svc.Reactions.Toggle(ctx, u, models.TargetComment, commentID); err != nil {
				return nil, err
			}
			summary.Likes++
		}
	}

	log.WithFields(log.Fields{
		"users":    summary.Users,
		"posts":    summary.Posts,
		"comments": summary.Comments,
		"likes":    summary.Likes,
	}).Info("Seeding complete")
	return summary, nil
}
