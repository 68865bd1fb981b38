// Package testdb provides utilities for database integration tests.
//
// Tests run inside a transaction that is rolled back when the test ends, so
// they can share one schema and run in parallel without cleanup:
//
//	func TestSomething(t *testing.T) {
//	    db := testdb.GetTestDBWithT(t)
//	    testdb.SetupTestDatabaseSchema(t, db)
//
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        tasks := postgres.NewPostgresTaskStore(tx, nil)
//	        // ...
//	    })
//	}
//
// GetTestDBWithT skips the test when neither DATABASE_URL nor
// SCRY_TEST_DB_URL is set. The package depends only on database/sql and the
// migration files, never on store implementations.
package testdb
