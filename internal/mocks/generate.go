package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/profile --output domain/profile --outpkg profilemock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Provider --dir ../domain/identity --output domain/identity --outpkg identitymock --filename provider_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name SnapshotStore --dir ../domain/onboarding --output domain/onboarding --outpkg onboardingmock --filename snapshot_store_mock.go
