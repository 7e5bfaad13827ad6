package policy

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "pactum/pkg/domain"
	"pactum/pkg/platform/sentinel"
)

type PolicyStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func (s *PolicyStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func TestPolicyStoreSuite(t *testing.T) {
	suite.Run(t, new(PolicyStoreSuite))
}

func (s *PolicyStoreSuite) newPolicy(company id.UserID, name string, createdAt time.Time) *Policy {
	return &Policy{
		ID:            id.PolicyID(uuid.New()),
		CompanyUserID: company,
		Name:          name,
		Category:      "data storage",
		Keywords:      "offshore,overseas processing",
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

func (s *PolicyStoreSuite) TestSaveAndGet() {
	s.Run("saves and retrieves a policy", func() {
		p := s.newPolicy(id.UserID(uuid.New()), "No Offshore Data Storage", time.Now())
		s.Require().NoError(s.store.Save(s.ctx, p))

		found, err := s.store.Get(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(p.Name, found.Name)
		s.Equal(p.Keywords, found.Keywords)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.Get(s.ctx, id.PolicyID(uuid.New()))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PolicyStoreSuite) TestListByCompanyNewestFirst() {
	company := id.UserID(uuid.New())
	other := id.UserID(uuid.New())
	base := time.Now()

	older := s.newPolicy(company, "Older", base.Add(-time.Hour))
	newer := s.newPolicy(company, "Newer", base)
	foreign := s.newPolicy(other, "Foreign", base)

	s.Require().NoError(s.store.Save(s.ctx, older))
	s.Require().NoError(s.store.Save(s.ctx, newer))
	s.Require().NoError(s.store.Save(s.ctx, foreign))

	listed, err := s.store.ListByCompany(s.ctx, company)
	s.Require().NoError(err)
	s.Require().Len(listed, 2)
	s.Equal("Newer", listed[0].Name)
	s.Equal("Older", listed[1].Name)
}

func (s *PolicyStoreSuite) TestDelete() {
	p := s.newPolicy(id.UserID(uuid.New()), "Short Lived", time.Now())
	s.Require().NoError(s.store.Save(s.ctx, p))

	s.Require().NoError(s.store.Delete(s.ctx, p.ID))

	_, err := s.store.Get(s.ctx, p.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	s.Require().ErrorIs(s.store.Delete(s.ctx, p.ID), sentinel.ErrNotFound)
}

func (s *PolicyStoreSuite) TestKeywordList() {
	p := Policy{Keywords: " offshore , overseas processing ,, "}
	s.Equal([]string{"offshore", "overseas processing"}, p.KeywordList())

	s.Nil(Policy{}.KeywordList())
}
