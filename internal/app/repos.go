package app

import (
	"gorm.io/gorm"

	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/repos"
)

type Repos struct {
	User        repos.UserRepo
	UserToken   repos.UserTokenRepo
	Cv          repos.CvRepo
	CvChunk     repos.CvChunkRepo
	Jd          repos.JdRepo
	JdRule      repos.JdRuleRepo
	JdRuleChunk repos.JdRuleChunkRepo
	RuleSet     repos.RuleSetRepo
	Evaluation  repos.EvaluationRepo
	Vector      repos.VectorRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		User:        repos.NewUserRepo(db, log),
		UserToken:   repos.NewUserTokenRepo(db, log),
		Cv:          repos.NewCvRepo(db, log),
		CvChunk:     repos.NewCvChunkRepo(db, log),
		Jd:          repos.NewJdRepo(db, log),
		JdRule:      repos.NewJdRuleRepo(db, log),
		JdRuleChunk: repos.NewJdRuleChunkRepo(db, log),
		RuleSet:     repos.NewRuleSetRepo(db, log),
		Evaluation:  repos.NewEvaluationRepo(db, log),
		Vector:      repos.NewVectorRepo(db, log),
	}
}
