// Package test holds black-box tests of the public API. Tests tagged
// integration need a PostgreSQL server named by AUTHCORE_TEST_DATABASE_URL.
package test
