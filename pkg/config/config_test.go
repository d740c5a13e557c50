package config

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFromEnvironment(t *testing.T) {
	Convey("Given an environment with only the required values", t, func() {
		t.Setenv("NEO4J_PASSWORD", "secret")
		t.Setenv("OPENAI_API_KEY", "sk-test")

		Convey("When loading the configuration", func() {
			cfg, err := Load("testdata/missing.env")
			So(err, ShouldBeNil)

			Convey("It should apply the defaults", func() {
				So(cfg.Neo4j.URI, ShouldEqual, "neo4j://localhost:7687")
				So(cfg.Neo4j.Username, ShouldEqual, "neo4j")
				So(cfg.Neo4j.Database, ShouldEqual, "neo4j")
				So(cfg.Embedding.Dimensions, ShouldEqual, 1536)
				So(cfg.Embedding.Similarity, ShouldEqual, "cosine")
				So(cfg.Retrieval.TopK, ShouldEqual, 3)
				So(cfg.Retrieval.VectorBackend, ShouldEqual, BackendNeo4j)
				So(cfg.Timeouts.Translation, ShouldEqual, 60*time.Second)
				So(cfg.QdrantEnabled(), ShouldBeFalse)
			})

			Convey("It should validate", func() {
				So(cfg.Validate(), ShouldBeNil)
			})
		})
	})

	Convey("Given overrides in the environment", t, func() {
		t.Setenv("NEO4J_PASSWORD", "secret")
		t.Setenv("OPENAI_API_KEY", "sk-test")
		t.Setenv("EMBEDDING_DIMENSIONS", "3072")
		t.Setenv("STORE_TIMEOUT", "5s")
		t.Setenv("VECTOR_BACKEND", "QDRANT")

		cfg, err := Load("testdata/missing.env")
		So(err, ShouldBeNil)

		Convey("It should pick them up", func() {
			So(cfg.Embedding.Dimensions, ShouldEqual, 3072)
			So(cfg.Timeouts.Store, ShouldEqual, 5*time.Second)
			So(cfg.Retrieval.VectorBackend, ShouldEqual, BackendQdrant)
		})

		Convey("It should reject the qdrant backend without a host", func() {
			err := cfg.Validate()
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "QDRANT_HOST")
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given an empty configuration", t, func() {
		cfg := &Config{}

		Convey("Validate should list the missing essentials", func() {
			err := cfg.Validate()
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "Neo4j configuration is incomplete")
			So(err.Error(), ShouldContainSubstring, "OpenAI API key is required")
		})
	})
}
