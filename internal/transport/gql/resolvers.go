package gql

import (
	"github.com/graphql-go/graphql"

	"go-gin-feed-api/internal/domain"
	"go-gin-feed-api/internal/service"
	mdw "go-gin-feed-api/internal/transport/http/middleware"
)

// Resolver 把 GraphQL 字段接到服务层；调用者身份从请求 context 取
type Resolver struct {
	Auth  *service.AuthService
	Posts *service.PostService
}

func viewer(p graphql.ResolveParams) *domain.Identity { return mdw.IdentityFrom(p.Context) }

func str(m map[string]interface{}, k string) string {
	s, _ := m[k].(string)
	return s
}

func postInputFrom(p graphql.ResolveParams) service.PostInput {
	m, _ := p.Args["postInput"].(map[string]interface{})
	return service.PostInput{Title: str(m, "title"), Content: str(m, "content"), ImageURL: str(m, "imageUrl")}
}

func (r *Resolver) login(p graphql.ResolveParams) (interface{}, error) {
	return r.Auth.Login(p.Context, service.LoginInput{Email: str(p.Args, "email"), Password: str(p.Args, "password")})
}

func (r *Resolver) signup(p graphql.ResolveParams) (interface{}, error) {
	return r.Auth.Signup(p.Context, service.SignupInput{Email: str(p.Args, "email"), Name: str(p.Args, "name"), Password: str(p.Args, "password")})
}

func (r *Resolver) getPosts(p graphql.ResolveParams) (interface{}, error) {
	page, _ := p.Args["page"].(int)
	res, err := r.Posts.List(p.Context, viewer(p), page)
	if err != nil {
		return nil, err
	}
	posts := make([]*domain.Post, len(res.Posts))
	for i := range res.Posts {
		posts[i] = &res.Posts[i]
	}
	return map[string]interface{}{"posts": posts, "totalPosts": int(res.TotalItems)}, nil
}

func (r *Resolver) getPost(p graphql.ResolveParams) (interface{}, error) {
	return r.Posts.Get(p.Context, str(p.Args, "postId"))
}

func (r *Resolver) createPost(p graphql.ResolveParams) (interface{}, error) {
	return r.Posts.Create(p.Context, viewer(p), postInputFrom(p))
}

func (r *Resolver) updatePost(p graphql.ResolveParams) (interface{}, error) {
	return r.Posts.Update(p.Context, viewer(p), str(p.Args, "id"), postInputFrom(p))
}

func (r *Resolver) deletePost(p graphql.ResolveParams) (interface{}, error) {
	if err := r.Posts.Delete(p.Context, viewer(p), str(p.Args, "id")); err != nil {
		return nil, err
	}
	return true, nil
}

func (r *Resolver) getUserStatus(p graphql.ResolveParams) (interface{}, error) {
	st, err := r.Auth.Status(p.Context, viewer(p))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": st}, nil
}

func (r *Resolver) updateUserStatus(p graphql.ResolveParams) (interface{}, error) {
	return r.Auth.UpdateStatus(p.Context, viewer(p), service.StatusInput{Status: str(p.Args, "status")})
}

func (r *Resolver) viewerUser(p graphql.ResolveParams) (interface{}, error) {
	id := viewer(p)
	if id == nil {
		_, err := r.Auth.Status(p.Context, nil)
		return nil, err
	}
	return r.Auth.User(p.Context, id.UserID)
}

func (r *Resolver) postCreator(p graphql.ResolveParams) (interface{}, error) {
	post, ok := p.Source.(*domain.Post)
	if !ok {
		return nil, nil
	}
	return r.Auth.User(p.Context, post.Creator)
}

func (r *Resolver) userPosts(p graphql.ResolveParams) (interface{}, error) {
	u, ok := p.Source.(*domain.User)
	if !ok {
		return nil, nil
	}
	rows, err := r.Posts.ListByIDs(p.Context, u.PostIDs)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Post, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out, nil
}
