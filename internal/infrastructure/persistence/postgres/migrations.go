// Package postgres implements the PostgreSQL persistence layer for the
// progression ledger.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE STUDENT PROFILES
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create student_profiles table
-- Version: 001

CREATE TABLE IF NOT EXISTS student_profiles (
    user_id UUID PRIMARY KEY,
    level VARCHAR(2) NOT NULL DEFAULT '',
    is_alumni BOOLEAN NOT NULL DEFAULT FALSE,
    alumni_since TIMESTAMP WITH TIME ZONE,
    teacher_id UUID,
    tutor_id UUID,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_level CHECK (level IN ('', 'A1', 'A2', 'B1', 'B2', 'C1', 'C2')),
    -- Alumni never keep staff assignments
    CONSTRAINT alumni_without_staff CHECK (
        NOT is_alumni OR (teacher_id IS NULL AND tutor_id IS NULL)
    )
);

CREATE INDEX IF NOT EXISTS idx_student_profiles_teacher ON student_profiles(teacher_id) WHERE teacher_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_student_profiles_tutor ON student_profiles(tutor_id) WHERE tutor_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_student_profiles_alumni ON student_profiles(is_alumni) WHERE is_alumni;
`

const migration001Down = `
DROP TABLE IF EXISTS student_profiles;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE PROGRESS WEEKS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create progress_weeks table
-- Version: 002
-- week_number < 100: regular curriculum slot (1..12)
-- week_number >= 100: special week encoded as base*100 + ordinal

CREATE TABLE IF NOT EXISTS progress_weeks (
    id UUID PRIMARY KEY,
    student_id UUID NOT NULL REFERENCES student_profiles(user_id) ON DELETE CASCADE,
    week_number INTEGER NOT NULL,
    theme TEXT NOT NULL DEFAULT '',
    objectives TEXT NOT NULL DEFAULT '',
    is_completed BOOLEAN NOT NULL DEFAULT FALSE,
    completed_by VARCHAR(100) NOT NULL DEFAULT '',
    completed_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT positive_week_number CHECK (week_number > 0),
    -- The constraint that turns the ordinal-allocation race into a
    -- retriable conflict instead of a silent duplicate.
    CONSTRAINT uniq_student_week UNIQUE (student_id, week_number)
);

CREATE INDEX IF NOT EXISTS idx_progress_weeks_student ON progress_weeks(student_id, week_number);
-- Current-week lookup: lowest incomplete regular week per student
CREATE INDEX IF NOT EXISTS idx_progress_weeks_current
    ON progress_weeks(student_id, week_number)
    WHERE NOT is_completed AND week_number < 100;
`

const migration002Down = `
DROP TABLE IF EXISTS progress_weeks;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE PROGRESS NOTES
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create progress_notes table
-- Version: 003
-- One note per (week, class day); classes run Tuesday through Friday.

CREATE TABLE IF NOT EXISTS progress_notes (
    id UUID PRIMARY KEY,
    week_id UUID NOT NULL REFERENCES progress_weeks(id) ON DELETE CASCADE,
    day_type VARCHAR(10) NOT NULL,
    class_topics TEXT NOT NULL DEFAULT '',
    tutoring_topics TEXT NOT NULL DEFAULT '',
    vocabulary TEXT NOT NULL DEFAULT '',
    achievements TEXT NOT NULL DEFAULT '',
    challenges TEXT NOT NULL DEFAULT '',
    created_by VARCHAR(100) NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_day_type CHECK (day_type IN ('tuesday', 'wednesday', 'thursday', 'friday')),
    CONSTRAINT uniq_week_day UNIQUE (week_id, day_type)
);

CREATE INDEX IF NOT EXISTS idx_progress_notes_week ON progress_notes(week_id);
`

const migration003Down = `
DROP TABLE IF EXISTS progress_notes;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: CREATE TOPIC TABLES
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
-- Migration: Create curriculum_topics and topic_progress tables
-- Version: 004
-- The catalog is written by the curriculum tool; calibration colors by the
-- calibration tool. This core reads both and wipes topic_progress on
-- reassignment.

CREATE TABLE IF NOT EXISTS curriculum_topics (
    id UUID PRIMARY KEY,
    week_number INTEGER NOT NULL,
    title TEXT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT regular_slot CHECK (week_number > 0 AND week_number < 100)
);

CREATE INDEX IF NOT EXISTS idx_curriculum_topics_week ON curriculum_topics(week_number);

CREATE TABLE IF NOT EXISTS topic_progress (
    student_id UUID NOT NULL REFERENCES student_profiles(user_id) ON DELETE CASCADE,
    topic_id UUID NOT NULL REFERENCES curriculum_topics(id) ON DELETE CASCADE,
    color VARCHAR(20) NOT NULL DEFAULT '',
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (student_id, topic_id)
);

CREATE INDEX IF NOT EXISTS idx_topic_progress_student ON topic_progress(student_id);
`

const migration004Down = `
DROP TABLE IF EXISTS topic_progress;
DROP TABLE IF EXISTS curriculum_topics;
`
