// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/suashub/suashub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates the collections if missing and attaches JSON-Schema
// validators. Servers without collMod/validator support are logged and
// skipped.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if err := ensureCollection(ctx, db, coll, logger); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				logger.Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
			return
		}
		logger.Debug("validator ensured", zap.String("collection", coll))
	}

	ensure("users", usersSchema())
	ensure("casos", casosSchema())
	ensure("registros", registrosSchema())
	ensure("encaminhamentos", encaminhamentosSchema())
	ensure("atendimentos", atendimentosSchema())

	// Written only by the app; no validator needed.
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers ---------------------- */

func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ensureCollection idempotently makes sure name exists.
func ensureCollection(ctx context.Context, db *mongo.Database, name string, logger *zap.Logger) error {
	if exists, err := collectionExists(ctx, db, name); err == nil && exists {
		return nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			return nil
		}
		logger.Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return err
	}
	logger.Info("created collection", zap.String("collection", name))
	return nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	return db.RunCommand(ctx, cmd).Err()
}

/* ------------------------- error helpers ------------------------- */

func commandMatches(err error, code int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == code {
		return true
	}
	s := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func isNamespaceExistsErr(err error) bool {
	return commandMatches(err, 48, "already exists", "namespace exists")
}

func isNoSuchCommand(err error) bool {
	return commandMatches(err, 59, "no such command")
}

func isNotImplemented(err error) bool {
	return commandMatches(err, 115, "not implemented", "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func longID() bson.M { return bson.M{"bsonType": "long"} }

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"login", "login_ci", "full_name", "password_hash", "role", "status"},
			"properties": bson.M{
				"login":         nonBlank,
				"login_ci":      nonBlank,
				"full_name":     nonBlank,
				"password_hash": nonBlank,
				"role":          bson.M{"enum": bson.A{models.RoleAdmin, models.RoleCoordenador, models.RoleTecnico}},
				"status":        bson.M{"enum": bson.A{"active", "disabled"}},
			},
		},
	}
}

func casosSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"_id", "nome", "nome_ci", "programa", "etapa_atual", "status"},
			"properties": bson.M{
				"_id":         longID(),
				"nome":        nonBlank,
				"nome_ci":     nonBlank,
				"programa":    nonBlank,
				"etapa_atual": nonBlank,
				"status":      bson.M{"enum": bson.A{"ativo", "encerrado"}},
			},
		},
	}
}

func registrosSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"_id", "caso_id", "etapa", "data_hora"},
			"properties": bson.M{
				"_id":              longID(),
				"caso_id":          longID(),
				"etapa":            nonBlank,
				"responsavel_nome": bson.M{"bsonType": "string"},
				"data_hora":        bson.M{"bsonType": "date"},
				"obs":              bson.M{"bsonType": "string"},
				"atendimento_id":   bson.M{"bsonType": bson.A{"long", "null"}},
				"encaminhamentos":  bson.M{"bsonType": bson.A{"array", "null"}},
			},
		},
	}
}

func encaminhamentosSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"_id", "caso_id", "tipo", "status"},
			"properties": bson.M{
				"_id":                  longID(),
				"caso_id":              longID(),
				"tipo":                 bson.M{"enum": bson.A{models.EncaminhamentoIntermunicipal, models.EncaminhamentoRedeLocal}},
				"municipio_origem_id":  longID(),
				"municipio_destino_id": longID(),
				"destino":              bson.M{"bsonType": "string"},
				"status":               bson.M{"bsonType": "string"},
			},
		},
	}
}

func atendimentosSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"_id", "caso_id", "tipo", "data_hora"},
			"properties": bson.M{
				"_id":       longID(),
				"caso_id":   longID(),
				"tipo":      bson.M{"enum": bson.A{"individual", "familiar", "visita"}},
				"data_hora": bson.M{"bsonType": "date"},
				"descricao": bson.M{"bsonType": "string"},
			},
		},
	}
}
